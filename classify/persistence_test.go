package classify

import (
	"os"
	"path/filepath"
	"testing"

	"argus/core"
	"argus/intel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSaveLoadModel_RoundTrip(t *testing.T) {
	logger := zap.NewNop().Sugar()
	model, err := TrainModel(trainingSet(), intel.EmptySnapshot(), nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "models", "classifier.gob.gz")
	require.NoError(t, SaveModel(model, path, logger))

	// Metadata sidecar is written alongside.
	_, err = os.Stat(path + ".meta.json")
	require.NoError(t, err)

	loaded, err := LoadModel(path, logger)
	require.NoError(t, err)
	assert.Equal(t, model.Weights, loaded.Weights)
	assert.Equal(t, model.Bias, loaded.Bias)
	assert.Equal(t, model.SampleCount, loaded.SampleCount)
}

func TestLoadModel_MissingFile(t *testing.T) {
	_, err := LoadModel(filepath.Join(t.TempDir(), "absent.gob.gz"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrModelUnavailable)
}

func TestLoadModel_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.gob.gz")
	require.NoError(t, os.WriteFile(path, []byte("not a gzip stream"), 0600))

	_, err := LoadModel(path, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrModelUnavailable)
}

func TestSaveModel_NilModel(t *testing.T) {
	err := SaveModel(nil, filepath.Join(t.TempDir(), "m.gob.gz"), nil)
	require.Error(t, err)
}
