package object

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// Stored describes a CV file after it has been written.
type Stored struct {
	Key         string
	Size        int64
	ContentType string
}

// ObjectStore keeps uploaded CV files. Keys are opaque to callers and are
// namespaced per owner.
type ObjectStore interface {
	Save(ctx context.Context, ownerID, fileName string, r io.Reader) (Stored, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

const sniffLen = 512

// Prepare validates fileName, allocates a key and returns a reader that
// replays the sniffed head in front of the remaining body.
func Prepare(ownerID, fileName string, r io.Reader) (key, contentType string, body io.Reader, err error) {
	key, err = NewKey(ownerID, fileName)
	if err != nil {
		return "", "", nil, err
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", "", nil, fmt.Errorf("read head: %w", err)
	}
	head = head[:n]
	return key, ContentType(fileName, head), io.MultiReader(bytes.NewReader(head), r), nil
}

// CountingReader counts bytes read through it.
type CountingReader struct {
	R io.Reader
	N int64
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.R.Read(p)
	c.N += int64(n)
	return n, err
}
