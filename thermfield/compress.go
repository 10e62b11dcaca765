package thermfield

import (
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"

	"github.com/carbocation/pfx"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type compression byte

const (
	compressionNone compression = iota
	compressionGzip
	compressionZip
	compressionXZ
	compressionBzip2
)

// Byte code signatures from https://stackoverflow.com/a/19127748/199475
var compressionSigs = map[compression][]byte{
	compressionGzip:  {0x1f, 0x8b, 0x08},
	compressionZip:   {0x50, 0x4b, 0x03, 0x04},
	compressionXZ:    {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	compressionBzip2: {0x42, 0x5a, 0x68},
}

// sniffCompression checks the leading bytes of r against known compression
// signatures. Short reads are fine; a file smaller than a signature simply
// cannot match it.
func sniffCompression(r io.Reader) (compression, error) {
	buff := make([]byte, 6)
	n, err := r.Read(buff)
	if err != nil && err != io.EOF {
		return compressionNone, pfx.Err(err)
	}

Outer:
	for comp, sig := range compressionSigs {
		if n < len(sig) {
			continue
		}
		for position := range sig {
			if buff[position] != sig[position] {
				continue Outer
			}
		}
		return comp, nil
	}

	return compressionNone, nil
}

// maybeDecompress wraps f in whatever decompressor its leading bytes call
// for. Table exports routinely arrive gzipped (or zipped, or xz'd) after a
// trip through email or a share drive, so the table loaders sniff content
// rather than trusting the file name.
func maybeDecompress(f *os.File) (io.ReadCloser, error) {
	comp, err := sniffCompression(f)
	if err != nil {
		return nil, err
	}

	// Rewind so the decompressor sees the signature bytes again.
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, pfx.Err(err)
	}

	switch comp {
	case compressionGzip:
		return gzip.NewReader(f)
	case compressionZip:
		// Advance to the first archive member; a zipped export holds the
		// table as its only entry.
		zr := zipstream.NewReader(f)
		if _, err := zr.Next(); err != nil {
			return nil, pfx.Err(err)
		}
		return io.NopCloser(zr), nil
	case compressionBzip2:
		return io.NopCloser(bzip2.NewReader(f)), nil
	case compressionXZ:
		reader, err := xz.NewReader(f, 0)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(reader), nil
	}

	// No signature matched; assume plain text.
	return f, nil
}
