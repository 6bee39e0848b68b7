package tollzone

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// writeFileAtomic writes data into temporary file next to fname and renames it on success,
// so fname is either absent, previous version or complete new one. Files ending with '.gz' are compressed
func writeFileAtomic(fname string, write func(w io.Writer) error) error {
	dir := filepath.Dir(fname)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fname)+".tmp-*")
	if err != nil {
		return ioError(err, "can't create file in '%s'", dir)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	buffered := bufio.NewWriter(tmp)
	var out io.Writer = buffered
	var gz *gzip.Writer
	if strings.HasSuffix(fname, ".gz") {
		gz = gzip.NewWriter(buffered)
		out = gz
	}
	if err := write(out); err != nil {
		return err
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return ioError(err, "can't compress '%s'", fname)
		}
	}
	if err := buffered.Flush(); err != nil {
		return ioError(err, "can't write '%s'", fname)
	}
	if err := tmp.Close(); err != nil {
		return ioError(err, "can't close '%s'", fname)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return ioError(err, "can't set permissions of '%s'", fname)
	}
	if err := os.Rename(tmpName, fname); err != nil {
		return ioError(err, "can't move file to '%s'", fname)
	}
	committed = true
	return nil
}

// openMaybeGzip opens file for reading, decompressing it if name ends with '.gz'
func openMaybeGzip(fname string) (io.ReadCloser, error) {
	file, err := os.Open(fname)
	if err != nil {
		return nil, ioError(err, "can't open file")
	}
	if !strings.HasSuffix(fname, ".gz") {
		return file, nil
	}
	gz, err := gzip.NewReader(file)
	if err != nil {
		file.Close()
		return nil, malformedError(err, "can't decompress '%s'", fname)
	}
	return &gzipReadCloser{Reader: gz, file: file}, nil
}

type gzipReadCloser struct {
	*gzip.Reader
	file *os.File
}

func (rc *gzipReadCloser) Close() error {
	rc.Reader.Close()
	return rc.file.Close()
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func xmlAttr(se xml.StartElement, name string) (string, bool) {
	for _, attr := range se.Attr {
		if attr.Name.Local == name {
			return attr.Value, true
		}
	}
	return "", false
}
