// Package media holds the value types shared by the frame source and the
// playback driver: converted RGB24 frames, frame sequences and the closed
// set of playback frame rates.
package media
