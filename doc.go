/*
Package duckdns keeps a Duck DNS hostname pointed at this host's public IP address.

Usage will always start with [duckdns.New],
which returns an [Updater] reading its domain list and token from a [Store].
Each call to [Updater.RunCycle] makes one update request and reports the outcome through the configured [Notifier].
[RunDaemon] drives RunCycle on one of the fixed refresh [Intervals] until a cycle asks to be disabled.

Additional updater configuration options are listed in the docs for New.
*/
package duckdns
