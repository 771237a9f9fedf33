package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/provider"
	providermock "github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/provider/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestModelLoader_Load(t *testing.T) {
	p := providermock.New()
	loader := NewModelLoader(p, provider.DefaultModels(), testLogger())

	assert.False(t, loader.Ready())
	state, err := loader.State()
	assert.Equal(t, LoadPending, state)
	assert.NoError(t, err)

	require.NoError(t, loader.Load(context.Background()))

	assert.True(t, loader.Ready())
	state, err = loader.State()
	assert.Equal(t, LoadDone, state)
	assert.NoError(t, err)
	assert.Len(t, loader.Models(), 3)
}

func TestModelLoader_LoadFailure(t *testing.T) {
	p := providermock.New().FailLoad(provider.ModelLandmarks, errors.New("404 Not Found"))
	loader := NewModelLoader(p, provider.DefaultModels(), testLogger())

	err := loader.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "face_landmark_68")
	assert.False(t, loader.Ready())

	state, stateErr := loader.State()
	assert.Equal(t, LoadFailed, state)
	assert.Equal(t, err, stateErr)
}

func TestModelLoader_LoadRunsOnce(t *testing.T) {
	p := new(MockFaceProvider)
	p.On("LoadModel", mock.Anything, mock.Anything).Return(errors.New("offline")).Times(3)
	loader := NewModelLoader(p, provider.DefaultModels(), testLogger())

	require.Error(t, loader.Load(context.Background()))
	assert.ErrorIs(t, loader.Load(context.Background()), errLoadStarted)

	p.AssertNumberOfCalls(t, "LoadModel", 3)
	p.AssertNotCalled(t, "Open", mock.Anything)
}

func TestModelLoader_LoadsEveryModel(t *testing.T) {
	p := new(MockFaceProvider)
	for _, m := range provider.DefaultModels() {
		p.On("LoadModel", mock.Anything, m).Return(nil).Once()
	}
	p.On("Open", mock.Anything).Return(nil).Once()

	loader := NewModelLoader(p, provider.DefaultModels(), testLogger())
	require.NoError(t, loader.Load(context.Background()))

	p.AssertExpectations(t)
}

func TestModelLoader_OpenFailure(t *testing.T) {
	p := new(MockFaceProvider)
	p.On("LoadModel", mock.Anything, mock.Anything).Return(nil)
	p.On("Open", mock.Anything).Return(provider.ErrProviderUnavailable)

	loader := NewModelLoader(p, provider.DefaultModels(), testLogger())
	err := loader.Load(context.Background())

	assert.ErrorIs(t, err, provider.ErrProviderUnavailable)
	assert.False(t, loader.Ready())
}

func TestModelLoader_Verify(t *testing.T) {
	t.Run("reports every model", func(t *testing.T) {
		loader := NewModelLoader(providermock.New(), provider.DefaultModels(), testLogger())

		var seen []string
		err := loader.Verify(context.Background(), func(m provider.Model, err error) {
			assert.NoError(t, err)
			seen = append(seen, m.Name)
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"tiny_face_detector", "face_landmark_68", "face_recognition"}, seen)
		assert.False(t, loader.Ready(), "verify does not flip readiness")
	})

	t.Run("keeps going after a failure", func(t *testing.T) {
		p := providermock.New().FailLoad(provider.ModelDetector, errors.New("bad manifest"))
		loader := NewModelLoader(p, provider.DefaultModels(), testLogger())

		calls := 0
		err := loader.Verify(context.Background(), func(provider.Model, error) { calls++ })

		require.Error(t, err)
		assert.Contains(t, err.Error(), "tiny_face_detector")
		assert.Equal(t, 3, calls)
	})
}
