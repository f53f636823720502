// Package nbl provides convenient top-level wrappers around player and
// encoder, the NEBULAFX particle animation container's playback and
// encoding packages.
//
// # Basic usage
//
// Reading an animation:
//
//	r, err := nbl.OpenFile("effect.nbl")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	live, err := r.Reader.Seek(ctx, 120)
//
// Writing one:
//
//	w, err := nbl.CreateFile("effect.nbl", encoder.Header{TargetFPS: 30}, textures)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	if err := w.Writer.PushFrame(ctx, live, false); err != nil {
//	    log.Fatal(err)
//	}
//	if err := w.Writer.Finish(); err != nil {
//	    log.Fatal(err)
//	}
//
// For advanced usage and fine-grained control, use the player and encoder
// packages directly.
package nbl

import (
	"fmt"
	"os"

	"github.com/atemukesu/NebulaTools/encoder"
	"github.com/atemukesu/NebulaTools/player"
)

// FileReader pairs a player.Reader with the *os.File backing its
// io.ReaderAt, so callers that open by path don't have to manage the file
// handle themselves.
type FileReader struct {
	*player.Reader
	file *os.File
}

// OpenFile opens path and parses it as an NBL container (spec §6).
func OpenFile(path string, opts ...player.Option) (*FileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("nbl: opening %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()

		return nil, fmt.Errorf("nbl: stat %s: %w", path, err)
	}

	r, err := player.Open(f, info.Size(), opts...)
	if err != nil {
		f.Close()

		return nil, err
	}

	return &FileReader{Reader: r, file: f}, nil
}

// Close releases the underlying file handle.
func (r *FileReader) Close() error {
	return r.file.Close()
}

// FileWriter pairs an encoder.Writer with the *os.File backing its
// io.WriteSeeker.
type FileWriter struct {
	*encoder.Writer
	file *os.File
}

// CreateFile creates (or truncates) path and opens an encoder.Writer over
// it. The file is not fully written until Finish() succeeds; Close() must
// still be called afterward to release the handle.
func CreateFile(path string, header encoder.Header, textures []encoder.Texture, opts ...encoder.Option) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("nbl: creating %s: %w", path, err)
	}

	w, err := encoder.Create(f, header, textures, opts...)
	if err != nil {
		f.Close()

		return nil, err
	}

	return &FileWriter{Writer: w, file: f}, nil
}

// Close releases the underlying file handle. Call it after Finish()
// succeeds (or to clean up after a failed encode).
func (w *FileWriter) Close() error {
	return w.file.Close()
}
