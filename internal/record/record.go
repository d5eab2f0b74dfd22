package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"time"
)

var (
	ErrBadHeader = errors.New("not a hint file")
	ErrCorrupt   = errors.New("hint record checksum mismatch")
)

// HintMagic opens every hint file, followed by a version number.
var HintMagic = [4]byte{'S', 'L', 'H', 'F'}

const HintVersion uint16 = 2

// Header is the first thing in a hint file.
type Header struct {
	Magic   [4]byte
	Version uint16
	Files   uint32 // number of FileRecords that follow
	Entries uint64 // number of HintRecords after the files
}

// Magic (4) + Version (2) + Files (4) + Entries (8)
const HeaderSizeBytes = 18

// FileRecord describes one indexed file as it was when the hint file was
// written, and the decoder that indexed it. Records refer to files by their
// position in the file table.
type FileRecord struct {
	CRC         uint32 // Checksum of everything after this field
	Size        int64
	ModTime     int64 // Unix nanoseconds
	NameSize    uint32
	DecoderSize uint8
	Name        []byte
	Decoder     []byte
}

// CRC (4) + Size (8) + ModTime (8) + NameSize (4) + DecoderSize (1)
const FileRecordHeaderSizeBytes = 25

// MaxNameSize bounds the file name length a file record may declare.
const MaxNameSize = 4096

// HintRecord is one index entry: a key and the location of its frame.
type HintRecord struct {
	CRC       uint32 // Checksum of everything after this field
	FileID    uint32
	Offset    int64
	Seconds   int64 // Unix seconds of the key time
	Nanos     int32 // within Seconds, [0, 1e9)
	Channel   uint8
	KindSize  uint8
	Kind      []byte
}

// CRC (4) + FileID (4) + Offset (8) + Seconds (8) + Nanos (4) + Channel (1) + KindSize (1)
const HintRecordHeaderSizeBytes = 30

func NewHeader(files uint32, entries uint64) Header {
	return Header{Magic: HintMagic, Version: HintVersion, Files: files, Entries: entries}
}

func NewFileRecord(name, decoder string, size, modTime int64) FileRecord {
	r := FileRecord{
		Size:        size,
		ModTime:     modTime,
		NameSize:    uint32(len(name)),
		DecoderSize: uint8(len(decoder)),
		Name:        []byte(name),
		Decoder:     []byte(decoder),
	}
	r.CRC = CalculateCRC(r.fields(), r.payload())
	return r
}

func NewHintRecord(fileID uint32, offset int64, t time.Time, channel uint8, kind string) HintRecord {
	r := HintRecord{
		FileID:    fileID,
		Offset:    offset,
		Seconds:   t.Unix(),
		Nanos:     int32(t.Nanosecond()),
		Channel:   channel,
		KindSize:  uint8(len(kind)),
		Kind:      []byte(kind),
	}
	r.CRC = CalculateCRC(r.fields(), r.Kind)
	return r
}

func (r *FileRecord) fields() []byte {
	b := make([]byte, FileRecordHeaderSizeBytes-4)
	binary.LittleEndian.PutUint64(b[0:], uint64(r.Size))
	binary.LittleEndian.PutUint64(b[8:], uint64(r.ModTime))
	binary.LittleEndian.PutUint32(b[16:], r.NameSize)
	b[20] = r.DecoderSize
	return b
}

func (r *FileRecord) payload() []byte {
	return append(bytes.Clone(r.Name), r.Decoder...)
}

// Time rebuilds the key time in UTC.
func (r *HintRecord) Time() time.Time {
	return time.Unix(r.Seconds, int64(r.Nanos)).UTC()
}

func (r *HintRecord) fields() []byte {
	b := make([]byte, HintRecordHeaderSizeBytes-4)
	binary.LittleEndian.PutUint32(b[0:], r.FileID)
	binary.LittleEndian.PutUint64(b[4:], uint64(r.Offset))
	binary.LittleEndian.PutUint64(b[12:], uint64(r.Seconds))
	binary.LittleEndian.PutUint32(b[20:], uint32(r.Nanos))
	b[24] = r.Channel
	b[25] = r.KindSize
	return b
}

func EncodeHeaderToBytes(h *Header) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, h); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeHeader reads a header and checks its magic and version.
func DecodeHeader(r io.Reader) (*Header, error) {
	h := &Header{}
	if err := binary.Read(r, binary.LittleEndian, h); err != nil {
		return nil, err
	}
	if h.Magic != HintMagic || h.Version != HintVersion {
		return nil, ErrBadHeader
	}
	return h, nil
}

func EncodeFileRecordToBytes(r *FileRecord) ([]byte, error) {
	buf := &bytes.Buffer{}

	if err := binary.Write(buf, binary.LittleEndian, r.CRC); err != nil {
		return nil, err
	}
	buf.Write(r.fields())
	if _, err := buf.Write(r.payload()); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// DecodeFileRecord reads one file record and validates its checksum.
func DecodeFileRecord(r io.Reader) (*FileRecord, error) {
	header := make([]byte, FileRecordHeaderSizeBytes)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	rec := &FileRecord{
		CRC:         binary.LittleEndian.Uint32(header[0:]),
		Size:        int64(binary.LittleEndian.Uint64(header[4:])),
		ModTime:     int64(binary.LittleEndian.Uint64(header[12:])),
		NameSize:    binary.LittleEndian.Uint32(header[20:]),
		DecoderSize: header[24],
	}
	if rec.NameSize > MaxNameSize {
		return nil, ErrCorrupt
	}

	payload := make([]byte, int(rec.NameSize)+int(rec.DecoderSize))
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	if !ValidateCRC(header[4:], payload, rec.CRC) {
		return nil, ErrCorrupt
	}

	rec.Name = payload[:rec.NameSize]
	rec.Decoder = payload[rec.NameSize:]
	return rec, nil
}

func EncodeHintRecordToBytes(r *HintRecord) ([]byte, error) {
	buf := &bytes.Buffer{}

	if err := binary.Write(buf, binary.LittleEndian, r.CRC); err != nil {
		return nil, err
	}
	buf.Write(r.fields())
	if _, err := buf.Write(r.Kind); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// DecodeHintRecord reads one hint record and validates its checksum.
func DecodeHintRecord(r io.Reader) (*HintRecord, error) {
	header := make([]byte, HintRecordHeaderSizeBytes)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	rec := &HintRecord{
		CRC:       binary.LittleEndian.Uint32(header[0:]),
		FileID:    binary.LittleEndian.Uint32(header[4:]),
		Offset:    int64(binary.LittleEndian.Uint64(header[8:])),
		Seconds:   int64(binary.LittleEndian.Uint64(header[16:])),
		Nanos:     int32(binary.LittleEndian.Uint32(header[24:])),
		Channel:   header[28],
		KindSize:  header[29],
	}

	rec.Kind = make([]byte, rec.KindSize)
	if _, err := io.ReadFull(r, rec.Kind); err != nil {
		return nil, err
	}

	if !ValidateCRC(header[4:], rec.Kind, rec.CRC) {
		return nil, ErrCorrupt
	}
	return rec, nil
}
