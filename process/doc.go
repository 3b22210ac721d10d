// Package process runs external tools such as ffmpeg as subprocesses.
//
// Cancelling the context sends SIGTERM to the whole process group and
// escalates to SIGKILL once the grace period has passed, so a converter
// stuck on a slow input never outlives the call that started it.
package process
