package core

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/0xRadioAc7iv/go-sonarlocker/internal/lock"
	"github.com/0xRadioAc7iv/go-sonarlocker/internal/record"
	"github.com/0xRadioAc7iv/go-sonarlocker/model"
)

// A hint file is a zstd stream holding a record.Header, one
// record.FileRecord per indexed file in name order with the decoder that
// read it, and one
// record.HintRecord per index entry in key order. File records store base
// names so a directory can be moved together with its hint file.

type staleHintsError struct {
	reason string
}

func (e *staleHintsError) Error() string { return "hint file is stale: " + e.reason }

func stale(format string, args ...any) error {
	return &staleHintsError{reason: fmt.Sprintf(format, args...)}
}

// loadHints rebuilds the index from a hint file. It fails unless the file
// table matches the files that were just opened exactly.
func (l *Locker) loadHints(path string) (*keyDir, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(bufio.NewReader(f))
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	r := bufio.NewReader(dec)

	h, err := record.DecodeHeader(r)
	if err != nil {
		return nil, err
	}
	if int(h.Files) != len(l.files) {
		return nil, stale("hint file lists %d files, directory has %d", h.Files, len(l.files))
	}

	for i, df := range l.files {
		fr, err := record.DecodeFileRecord(r)
		if err != nil {
			return nil, err
		}
		if string(fr.Name) != filepath.Base(df.path) {
			return nil, stale("file %d is %s, expected %s", i, fr.Name, filepath.Base(df.path))
		}
		if fr.Size != df.size || fr.ModTime != df.modTime.UnixNano() {
			return nil, stale("%s changed", df.path)
		}
		if string(fr.Decoder) != df.dec.Name() {
			return nil, stale("%s was indexed as %s, now read as %s", df.path, fr.Decoder, df.dec.Name())
		}
	}

	kd := newKeyDir()
	for range h.Entries {
		hr, err := record.DecodeHintRecord(r)
		if err != nil {
			return nil, err
		}

		kind, ok := model.ParseKind(string(hr.Kind))
		ch := model.Channel(hr.Channel)
		if !ok || ch > model.ChannelMax || int(hr.FileID) >= len(l.files) || hr.Nanos < 0 || hr.Nanos >= 1e9 {
			return nil, stale("invalid entry %q/%d in file %d", hr.Kind, hr.Channel, hr.FileID)
		}

		k := model.NewKey(kind, hr.Time(), ch)
		kd.insert(k, Location{Path: l.files[hr.FileID].path, Offset: hr.Offset})
	}

	// the stream must end exactly after the last entry
	if _, err := r.ReadByte(); err != io.EOF {
		return nil, stale("trailing data after %d entries", h.Entries)
	}

	return kd, nil
}

// saveHints writes the current index to path. The file is written next to
// path and renamed into place while holding path's lock.
func (l *Locker) saveHints(path string) error {
	lf, err := lock.LockFile(path)
	if err != nil {
		return err
	}
	defer lock.UnlockFile(lf)

	tmp := path + tempFileExt
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if err := l.writeHints(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

func (l *Locker) writeHints(w io.Writer) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(hintCompressionLevel)))
	if err != nil {
		return err
	}

	if err := l.encodeHints(enc); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func (l *Locker) encodeHints(enc io.Writer) error {
	fileIDs := make(map[string]uint32, len(l.files))

	h := record.NewHeader(uint32(len(l.files)), uint64(l.index.len()))
	b, err := record.EncodeHeaderToBytes(&h)
	if err != nil {
		return err
	}
	if _, err := enc.Write(b); err != nil {
		return err
	}

	for i, df := range l.files {
		fileIDs[df.path] = uint32(i)

		fr := record.NewFileRecord(filepath.Base(df.path), df.dec.Name(), df.size, df.modTime.UnixNano())
		b, err := record.EncodeFileRecordToBytes(&fr)
		if err != nil {
			return err
		}
		if _, err := enc.Write(b); err != nil {
			return err
		}
	}

	for k, loc := range l.Iter() {
		hr := record.NewHintRecord(fileIDs[loc.Path], loc.Offset, k.Time, uint8(k.Channel), string(k.Kind))
		b, err := record.EncodeHintRecordToBytes(&hr)
		if err != nil {
			return err
		}
		if _, err := enc.Write(b); err != nil {
			return err
		}
	}

	return nil
}
