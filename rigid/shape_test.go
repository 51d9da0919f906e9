package rigid

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoxShape(t *testing.T) {
	cases := []struct {
		name    string
		half    mgl32.Vec3
		wantErr bool
	}{
		{"unit", mgl32.Vec3{0.5, 0.5, 0.5}, false},
		{"thin_plane", mgl32.Vec3{5, 0.05, 5}, false},
		{"below_convex_radius", mgl32.Vec3{5, 0.01, 5}, false},
		{"zero_extent", mgl32.Vec3{1, 0, 1}, true},
		{"negative_extent", mgl32.Vec3{-1, 1, 1}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, err := NewBoxShape(c.half)
			if c.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.half, s.HalfExtents)
			assert.LessOrEqual(t, s.convex, ConvexRadius)
		})
	}
}

func TestNewCompoundShape(t *testing.T) {
	box, err := NewBoxShape(mgl32.Vec3{0.5, 0.5, 0.5})
	require.NoError(t, err)

	t.Run("empty_rejected", func(t *testing.T) {
		_, err := NewCompoundShape(nil)
		require.Error(t, err)
	})

	t.Run("nil_child_rejected", func(t *testing.T) {
		_, err := NewCompoundShape([]CompoundChild{{Shape: nil}})
		require.Error(t, err)
	})

	t.Run("two_children", func(t *testing.T) {
		sphere, err := NewSphereShape(0.5)
		require.NoError(t, err)
		c, err := NewCompoundShape([]CompoundChild{
			{Shape: box, Rotation: mgl32.QuatIdent()},
			{Shape: sphere, Offset: mgl32.Vec3{0, 1, 0}, Rotation: mgl32.QuatIdent()},
		})
		require.NoError(t, err)
		assert.Len(t, c.Children(), 2)
	})
}

func TestNewScaledShape(t *testing.T) {
	box, err := NewBoxShape(mgl32.Vec3{0.5, 0.5, 0.5})
	require.NoError(t, err)

	t.Run("scales_bounds_per_axis", func(t *testing.T) {
		s, err := NewScaledShape(box, mgl32.Vec3{2, 1, 4})
		require.NoError(t, err)
		b := s.LocalBounds()
		assert.Equal(t, mgl32.Vec3{1, 0.5, 2}, b.Max)
	})

	t.Run("never_stacks_wrappers", func(t *testing.T) {
		s, err := NewScaledShape(box, mgl32.Vec3{2, 2, 2})
		require.NoError(t, err)
		_, err = NewScaledShape(s, mgl32.Vec3{3, 3, 3})
		require.Error(t, err)
	})

	t.Run("sphere_collapses_to_uniform_max", func(t *testing.T) {
		sphere, err := NewSphereShape(0.5)
		require.NoError(t, err)
		s, err := NewScaledShape(sphere, mgl32.Vec3{2, 1, 4})
		require.NoError(t, err)
		assert.Equal(t, mgl32.Vec3{4, 4, 4}, s.Scale())
		assert.Equal(t, mgl32.Vec3{2, 2, 2}, s.LocalBounds().Max)
	})

	t.Run("zero_scale_rejected", func(t *testing.T) {
		_, err := NewScaledShape(box, mgl32.Vec3{1, 0, 1})
		require.Error(t, err)
	})
}

func TestCapsuleBounds(t *testing.T) {
	c, err := NewCapsuleShape(0.5, 0.25)
	require.NoError(t, err)
	b := c.LocalBounds()
	assert.Equal(t, mgl32.Vec3{0.25, 0.75, 0.25}, b.Max)
}
