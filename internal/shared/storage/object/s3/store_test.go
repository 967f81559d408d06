package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeS3 struct {
	objects map[string][]byte
	puts    []*s3.PutObjectInput
	putErr  error
}

func newFake() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestObjectKeyPrefix(t *testing.T) {
	tests := []struct {
		prefix string
		key    string
		want   string
	}{
		{prefix: "", key: "owner/cv.pdf", want: "owner/cv.pdf"},
		{prefix: "cvs", key: "owner/cv.pdf", want: "cvs/owner/cv.pdf"},
		{prefix: "/cvs/", key: "/owner/cv.pdf", want: "cvs/owner/cv.pdf"},
		{prefix: "env/cvs", key: "owner/cv.pdf", want: "env/cvs/owner/cv.pdf"},
	}
	for _, tt := range tests {
		s := newStore(newFake(), "bucket", tt.prefix, "")
		if got := s.objectKey(tt.key); got != tt.want {
			t.Fatalf("objectKey(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
		}
	}
}

func TestSaveOpenDeleteRoundTrip(t *testing.T) {
	client := newFake()
	store := newStore(client, "bucket", "cvs", "")
	ctx := context.Background()

	stored, err := store.Save(ctx, "candidate-1", "cv.docx", strings.NewReader("PK\x03\x04 docx body"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.Contains(stored.ContentType, "wordprocessingml") {
		t.Fatalf("unexpected content type %s", stored.ContentType)
	}
	if stored.Size != int64(len("PK\x03\x04 docx body")) {
		t.Fatalf("unexpected size %d", stored.Size)
	}
	put := client.puts[0]
	if !strings.HasPrefix(aws.ToString(put.Key), "cvs/") || put.ServerSideEncryption != s3types.ServerSideEncryptionAes256 {
		t.Fatalf("unexpected put input key=%s sse=%s", aws.ToString(put.Key), put.ServerSideEncryption)
	}

	rc, err := store.Open(ctx, stored.Key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if !strings.HasSuffix(string(data), "docx body") {
		t.Fatalf("unexpected content %q", data)
	}

	if err := store.Delete(ctx, stored.Key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Open(ctx, stored.Key); err == nil {
		t.Fatal("expected open to fail after delete")
	}
}

func TestSaveUsesKMSKeyWhenConfigured(t *testing.T) {
	client := newFake()
	store := newStore(client, "bucket", "", "kms-key-1")
	if _, err := store.Save(context.Background(), "c", "cv.pdf", strings.NewReader("%PDF")); err != nil {
		t.Fatalf("save: %v", err)
	}
	put := client.puts[0]
	if put.ServerSideEncryption != s3types.ServerSideEncryptionAwsKms || aws.ToString(put.SSEKMSKeyId) != "kms-key-1" {
		t.Fatalf("expected kms encryption, got %s", put.ServerSideEncryption)
	}
}

func TestSaveWrapsPutError(t *testing.T) {
	client := newFake()
	client.putErr = errors.New("access denied")
	store := newStore(client, "bucket", "", "")
	_, err := store.Save(context.Background(), "c", "cv.pdf", strings.NewReader("%PDF"))
	if err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Fatalf("expected wrapped put error, got %v", err)
	}
}
