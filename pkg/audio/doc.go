// Package audio groups the speech playback path:
//
//   - pcm: L16 formats, MIME parsing, float sample buffers and gain
//   - resampler: rate conversion and channel remixing of float buffers
//   - playback: a Player that drives buffers into outputs in chunks
//   - portaudio: the cgo output device backing the CLI player
//
// Typical use:
//
//	buf, err := pcm.DecodeL16(data, 24000, 1)
//	player := &playback.Player{Opener: portaudio.Opener(playback.DefaultChunkDuration)}
//	pb, err := player.Start(ctx, buf)
//	err = pb.Wait(ctx)
package audio
