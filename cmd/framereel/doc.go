// Command framereel is the client for the framereel daemon.
//
// It triggers GIF generation and R analysis for result datasets, shows
// result metadata and job history, reports daemon health, and manages the
// daemon process. Most commands talk to the daemon's HTTP API; generate and
// analyze also accept --local to run in-process without a daemon.
package main
