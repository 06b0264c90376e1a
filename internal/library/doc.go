// Package library turns user-supplied files and stream URLs into playable
// tracks. It validates formats against an allow-list, probes durations,
// keeps the playlist and posts short-lived notifications for rejected input.
package library
