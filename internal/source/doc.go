// Package source turns a video file into RGB24 frames.
//
// An Extractor opens a container through a Backend, picks the best video
// stream, decodes every packet of that stream and keeps the frames selected
// by the target media.FrameRate. Frames are either collected into a
// media.Sequence (Extract) or handed to a consumer as they are produced
// (Stream).
package source
