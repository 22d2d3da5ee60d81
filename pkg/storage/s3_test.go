package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type apiError struct {
	code string
}

func (e *apiError) Error() string                 { return e.code }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.code }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

type object struct {
	data        []byte
	contentType string
}

// mockS3 is an in-memory S3 backend.
type mockS3 struct {
	mu      sync.Mutex
	objects map[string]object

	putErr  error
	headErr error
}

func newMockS3() *mockS3 {
	return &mockS3{objects: make(map[string]object)}
}

func (m *mockS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[*in.Key]
	if !ok {
		return nil, &apiError{code: "NoSuchKey"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(o.data))}, nil
}

func (m *mockS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	o := object{data: data}
	if in.ContentType != nil {
		o.contentType = *in.ContentType
	}
	m.mu.Lock()
	m.objects[*in.Key] = o
	m.mu.Unlock()
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	delete(m.objects, *in.Key)
	m.mu.Unlock()
	return &s3.DeleteObjectOutput{}, nil
}

func (m *mockS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if m.headErr != nil {
		return nil, m.headErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[*in.Key]; !ok {
		return nil, &apiError{code: "NotFound"}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3PutGet(t *testing.T) {
	ctx := context.Background()
	mock := newMockS3()
	store := NewS3(mock, "bucket", "roots")

	if err := store.Put(ctx, "speech/a.pcm", []byte{1, 2, 3}, "audio/L16"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	o, ok := mock.objects["roots/speech/a.pcm"]
	if !ok {
		t.Fatalf("object keys = %v", mock.objects)
	}
	if o.contentType != "audio/L16" {
		t.Errorf("ContentType = %q", o.contentType)
	}
	got, err := store.Get(ctx, "speech/a.pcm")
	if err != nil || !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if loc := store.Location("speech/a.pcm"); loc != "s3://bucket/roots/speech/a.pcm" {
		t.Errorf("Location = %q", loc)
	}
	if loc := NewS3(mock, "bucket", "").Location("a.png"); loc != "s3://bucket/a.png" {
		t.Errorf("Location without prefix = %q", loc)
	}
}

func TestS3NotFound(t *testing.T) {
	ctx := context.Background()
	store := NewS3(newMockS3(), "bucket", "")
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Get = %v, want ErrNotExist", err)
	}
	if ok, err := store.Exists(ctx, "missing"); err != nil || ok {
		t.Errorf("Exists = %v, %v", ok, err)
	}
	if err := store.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete = %v", err)
	}
}

func TestS3Errors(t *testing.T) {
	ctx := context.Background()
	mock := newMockS3()
	mock.putErr = &apiError{code: "AccessDenied"}
	mock.headErr = &apiError{code: "AccessDenied"}
	store := NewS3(mock, "bucket", "")

	err := store.Put(ctx, "a", nil, "")
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorCode() != "AccessDenied" {
		t.Errorf("Put = %v", err)
	}
	if _, err := store.Exists(ctx, "a"); err == nil {
		t.Error("Exists should surface non-404 errors")
	}
}

func TestNewS3Client(t *testing.T) {
	c := NewS3Client(S3Config{Endpoint: "http://localhost:9000", AccessKeyID: "k", SecretAccessKey: "s"})
	opts := c.Options()
	if opts.Region != "us-east-1" || !opts.UsePathStyle || opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://localhost:9000" {
		t.Errorf("options = region %q pathStyle %v endpoint %v", opts.Region, opts.UsePathStyle, opts.BaseEndpoint)
	}
	creds, err := opts.Credentials.Retrieve(context.Background())
	if err != nil || creds.AccessKeyID != "k" || creds.SecretAccessKey != "s" {
		t.Errorf("credentials = %+v, %v", creds, err)
	}
}
