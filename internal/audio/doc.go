// Package audio implements the audio chunk segmenter. It splits cleaned mono
// recordings into playable sub-clips of bounded duration using adaptive
// energy/zero-crossing silence detection, and provides WAV decoding and
// encoding for chunk materialization.
package audio
