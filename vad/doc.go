// Package vad turns a canonical audio buffer into an ordered list of speech
// intervals.
//
// Classification is per fixed 30 ms frame through a Detector. The built-in
// EnergyDetector mirrors the four WebRTC aggressiveness modes with an RMS
// floor and a zero-crossing ceiling. Classified frames are merged by
// MergeFrames: one non-speech frame inside a run is tolerated, longer gaps
// split the run, and runs shorter than 250 ms are dropped.
package vad
