package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/nano-midea/threads/internal/apperr"
)

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store_Put(t *testing.T) {
	t.Parallel()

	client := &fakeS3{}
	st := &S3Store{Client: client, Bucket: "uploads", PublicURL: "https://cdn.example"}

	ref, err := st.Put(context.Background(), "u1", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	require.Len(t, client.inputs, 1)

	key := aws.ToString(client.inputs[0].Key)
	assert.True(t, strings.HasPrefix(key, "media/u1/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "https://cdn.example/"+key, ref)
	assert.Equal(t, "uploads", aws.ToString(client.inputs[0].Bucket))
	assert.Equal(t, []byte("png-bytes"), client.bodies[0])
}

func TestS3Store_PutRejects(t *testing.T) {
	t.Parallel()

	st := &S3Store{Client: &fakeS3{}, Bucket: "uploads"}
	ctx := context.Background()

	_, err := st.Put(ctx, "u1", "application/pdf", strings.NewReader("x"))
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = st.Put(ctx, "u1", "image/jpeg", bytes.NewReader(nil))
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = st.Put(ctx, "u1", "image/jpeg", bytes.NewReader(make([]byte, MaxUploadSize+1)))
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = st.Put(ctx, "", "image/jpeg", strings.NewReader("x"))
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestS3Store_PutTransient(t *testing.T) {
	t.Parallel()

	st := &S3Store{Client: &fakeS3{err: errors.New("connection reset")}, Bucket: "uploads"}
	_, err := st.Put(context.Background(), "u1", "image/gif", strings.NewReader("gif"))
	require.ErrorIs(t, err, apperr.ErrTransient)
}
