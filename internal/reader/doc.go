// Package reader captures card reads from the physical reader device.
//
// A Source abstracts the device itself; LineSource reads newline-delimited
// card records from the serial device node the reader presents. Capture owns
// the read loop: it collapses repeated reads of the same card, appends each
// new read to the outbox, and rides out device unavailability with a retry
// wait. Monitor subscribes to udev netlink events for the device node and
// wakes the capture loop the moment a detached reader comes back.
//
// Capture never drops a read because the webhook is down; persistence is the
// outbox's job and delivery is the syncer's.
package reader
