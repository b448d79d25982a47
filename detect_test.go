package motionhdr_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/motionhdr"
)

func TestReadDescriptor(t *testing.T) {
	dir := t.TempDir()
	img := writeFile(t, dir, "img.jpg", fakeJPEG(t, 1000))

	_, err := motionhdr.ReadDescriptorFile(img)
	assert.ErrorIs(t, err, motionhdr.ErrNoDescriptor)

	n, passes, err := motionhdr.Converge(context.Background(), img, motionhdr.VariantMotionPhoto, []motionhdr.Segment{
		{Role: motionhdr.RoleMotionPhoto, Length: 500},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, passes)

	d, err := motionhdr.ReadDescriptorFile(img)
	require.NoError(t, err)
	assert.True(t, d.MotionPhoto)
	l, ok := d.Length(motionhdr.RolePrimary)
	require.True(t, ok)
	assert.Equal(t, n, l)
}

func TestReadXMP_notJPEG(t *testing.T) {
	_, err := motionhdr.ReadXMP(bytes.NewReader([]byte("not a jpeg at all")))
	assert.ErrorIs(t, err, motionhdr.ErrNoDescriptor)

	_, err = motionhdr.ReadXMP(bytes.NewReader(nil))
	assert.ErrorIs(t, err, motionhdr.ErrNoDescriptor)
}
