package sajson

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/maphash"
	"io"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

// Serializer freezes a parsed Document's structure region plus the string
// bytes it references into a compact on-disk form, and thaws it back
// later without re-running the parser: varint-framed block layout, a
// hash-keyed string dedup table, and a choice of s2 (fast) or zstd
// (best) block compression. Words are serialized directly (no tag/value
// split), and strings reference the mutated Buffer rather than a separate
// arena.
//
// This is the module's answer to "how do you avoid re-parsing a large
// document on every process start": it only freezes/thaws an
// already-finished tape, never streams or incrementally parses.
//
// A Serializer can be reused across calls but must not be used
// concurrently.
type Serializer struct {
	mode CompressMode

	wordsBuf     []byte
	stringsTable map[uint64]int
	stringBuf    []byte
	compBuf      []byte
}

// CompressMode selects the block compressor used for both the word
// stream and the deduplicated string table.
type CompressMode uint8

const (
	// CompressNone applies no compression.
	CompressNone CompressMode = iota
	// CompressFast applies s2 block compression.
	CompressFast
	// CompressBest applies zstd block compression; slower, smaller.
	CompressBest
)

const (
	blockTypeUncompressed byte = 0
	blockTypeS2           byte = 1
	blockTypeZstd         byte = 2
)

const serializedVersion = 1

// NewSerializer creates a Serializer using CompressFast.
func NewSerializer() *Serializer {
	return &Serializer{mode: CompressFast, stringsTable: make(map[uint64]int)}
}

// SetCompressMode sets the compression mode for subsequent Serialize calls.
func (s *Serializer) SetCompressMode(m CompressMode) {
	s.mode = m
}

func (s *Serializer) blockType() byte {
	switch s.mode {
	case CompressNone:
		return blockTypeUncompressed
	case CompressFast:
		return blockTypeS2
	case CompressBest:
		return blockTypeZstd
	default:
		panic("sajson: unknown compression mode")
	}
}

var seed = maphash.MakeSeed()

func hashBytes(b []byte) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	h.Write(b)
	return h.Sum64()
}

// indexString deduplicates sb against previously serialized strings in
// this call, returning its offset within the (possibly shared) string
// buffer. Keyed by hash/maphash into a plain Go map rather than a
// runtime-linked memhash, trading a little speed for not depending on an
// unexported runtime symbol.
func (s *Serializer) indexString(sb []byte) uint64 {
	h := hashBytes(sb)
	if off, ok := s.stringsTable[h]; ok {
		end := off + len(sb)
		if end <= len(s.stringBuf) && bytes.Equal(s.stringBuf[off:end], sb) {
			return uint64(off)
		}
	}
	off := len(s.stringBuf)
	s.stringBuf = append(s.stringBuf, sb...)
	s.stringsTable[h] = off
	return uint64(off)
}

// Serialize encodes doc's tape and referenced string bytes into dst,
// returning the extended slice.
//
// Layout (all integers are unsigned LEB128 varints unless noted):
//
//	version byte
//	word count
//	root kind byte, root base varint
//	raw strings size, block size, strings block (type byte + payload)
//	raw words-as-bytes size, block size, words block (type byte + payload)
//
// Each [begin, end) pair of source-buffer offsets (a string value's
// payload or an object entry's key) is re-pointed at serialization time
// to the matching [begin, end) range of the deduplicated string table;
// every other word is copied verbatim, since all other payloads are
// already self-relative arena offsets and survive being copied into a
// fresh structure region unchanged.
func (s *Serializer) Serialize(dst []byte, doc *Document) ([]byte, error) {
	if !doc.IsValid() {
		return nil, errors.New("sajson: cannot serialize an errored document")
	}

	s.stringsTable = make(map[uint64]int, len(s.stringsTable))
	s.stringBuf = s.stringBuf[:0]
	s.wordsBuf = s.wordsBuf[:0]

	// Every payload in the tape is a delta between two absolute indices
	// of the same structure region (see installContainer in parser.go),
	// so the whole tape can be re-based by a uniform shift without
	// touching a single stored word: take the slice starting at the
	// root's own index and treat that as index 0. Everything below
	// doc.rootBase is forward-scratch garbage the parser never reclaimed
	// from the outermost container's close and must not be serialized.
	words := doc.alloc.words[doc.rootBase:]
	n := len(words)
	var tmp [8]byte
	rewritten := make([]uint, n)
	copy(rewritten, words)

	visitStrings(doc, func(wordIdx int) {
		rel := wordIdx - doc.rootBase
		start := words[rel]
		end := words[rel+1]
		sb := doc.buf.data[start:end]
		off := s.indexString(sb)
		rewritten[rel] = uint(off)
		rewritten[rel+1] = uint(off) + uint(len(sb))
	})

	for _, w := range rewritten {
		binary.LittleEndian.PutUint64(tmp[:], uint64(w))
		s.wordsBuf = append(s.wordsBuf, tmp[:8]...)
	}

	dst = append(dst, serializedVersion)
	dst = appendUvarint(dst, uint64(n))
	dst = append(dst, byte(doc.rootKind))
	dst = appendUvarint(dst, 0)

	stringsBlock, err := s.encBlock(s.stringBuf)
	if err != nil {
		return nil, fmt.Errorf("sajson: compressing strings: %w", err)
	}
	dst = appendUvarint(dst, uint64(len(s.stringBuf)))
	dst = appendUvarint(dst, uint64(len(stringsBlock)))
	dst = append(dst, stringsBlock...)

	wordsBlock, err := s.encBlock(s.wordsBuf)
	if err != nil {
		return nil, fmt.Errorf("sajson: compressing words: %w", err)
	}
	dst = appendUvarint(dst, uint64(len(s.wordsBuf)))
	dst = appendUvarint(dst, uint64(len(wordsBlock)))
	dst = append(dst, wordsBlock...)

	return dst, nil
}

// visitStrings calls fn with the base word index of every KindString
// payload and every object key's (key_start, key_end) pair reachable from
// doc's root, so Serialize can rewrite those two words from buffer
// offsets to string-table offsets.
func visitStrings(doc *Document, fn func(wordIdx int)) {
	var walk func(v View)
	walk = func(v View) {
		switch v.Kind() {
		case KindString:
			fn(v.base)
		case KindArray:
			for i := 0; i < v.Length(); i++ {
				walk(v.Get(i))
			}
		case KindObject:
			for i := 0; i < v.Length(); i++ {
				fn(v.base + 1 + i*3)
				walk(v.Value(i))
			}
		}
	}
	walk(doc.Root())
}

// Deserialize reconstructs a Document from bytes produced by Serialize.
// The returned Document's Buffer holds only the deduplicated string
// bytes indexString stored (not the original source text); its tape's
// string payload words and object key words point into that buffer.
func (s *Serializer) Deserialize(src []byte) (*Document, error) {
	r := bytes.NewReader(src)
	ver, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if ver != serializedVersion {
		return nil, fmt.Errorf("sajson: unsupported serialized version %d", ver)
	}

	n, err := binary.ReadUvarint(byteReader{r})
	if err != nil {
		return nil, err
	}
	rootKindByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	rootBaseU, err := binary.ReadUvarint(byteReader{r})
	if err != nil {
		return nil, err
	}

	rawStrings, compStrings, err := readBlock(r)
	if err != nil {
		return nil, fmt.Errorf("sajson: reading strings block: %w", err)
	}
	strings, err := s.decBlock(compStrings, int(rawStrings))
	if err != nil {
		return nil, fmt.Errorf("sajson: decompressing strings: %w", err)
	}

	rawWords, compWords, err := readBlock(r)
	if err != nil {
		return nil, fmt.Errorf("sajson: reading words block: %w", err)
	}
	wordBytes, err := s.decBlock(compWords, int(rawWords))
	if err != nil {
		return nil, fmt.Errorf("sajson: decompressing words: %w", err)
	}
	if len(wordBytes) != int(n)*8 {
		return nil, fmt.Errorf("sajson: word stream length mismatch: want %d, got %d", n*8, len(wordBytes))
	}

	words := make([]uint, n)
	for i := range words {
		words[i] = uint(binary.LittleEndian.Uint64(wordBytes[i*8:]))
	}

	doc := &Document{
		buf:      Buffer{data: strings},
		alloc:    &allocator{words: words, write: int(n), out: int(n)},
		rootKind: Kind(rootKindByte),
		rootBase: int(rootBaseU),
	}
	return doc, nil
}

type byteReader struct{ r *bytes.Reader }

func (b byteReader) ReadByte() (byte, error) { return b.r.ReadByte() }

func appendUvarint(dst []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(dst, tmp[:n]...)
}

func readBlock(r *bytes.Reader) (rawSize uint64, compressed []byte, err error) {
	rawSize, err = binary.ReadUvarint(byteReader{r})
	if err != nil {
		return 0, nil, err
	}
	compSize, err := binary.ReadUvarint(byteReader{r})
	if err != nil {
		return 0, nil, err
	}
	compressed = make([]byte, compSize)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return 0, nil, err
	}
	return rawSize, compressed, nil
}

// encBlock compresses data per s.mode, prefixed with a one-byte block
// type tag so Deserialize can self-describe even if the Serializer's
// mode changes between calls.
func (s *Serializer) encBlock(data []byte) ([]byte, error) {
	typ := s.blockType()
	s.compBuf = append(s.compBuf[:0], typ)
	switch typ {
	case blockTypeUncompressed:
		return append(s.compBuf, data...), nil
	case blockTypeS2:
		var buf bytes.Buffer
		w := s2.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return append(s.compBuf, buf.Bytes()...), nil
	case blockTypeZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(data, s.compBuf), nil
	default:
		panic("sajson: unknown block type")
	}
}

func (s *Serializer) decBlock(compressed []byte, rawSize int) ([]byte, error) {
	if len(compressed) == 0 {
		return nil, nil
	}
	typ, compressed := compressed[0], compressed[1:]
	switch typ {
	case blockTypeUncompressed:
		return compressed, nil
	case blockTypeS2:
		dec := s2.NewReader(bytes.NewReader(compressed))
		out := make([]byte, rawSize)
		if _, err := io.ReadFull(dec, out); err != nil {
			return nil, err
		}
		return out, nil
	case blockTypeZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		out, err := dec.DecodeAll(compressed, make([]byte, 0, rawSize))
		if err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("sajson: unknown block type %d", typ)
	}
}
