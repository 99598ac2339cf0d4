package configutils

import (
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const leafConfig = `imports:
  - intermediate.yaml

drive_folder: leaf-folder
`

const intermediateConfig = `imports:
  - /etc/gcs2drive/base.yaml
  -

chunk_size: 524288
`

const baseConfig = `
drive_folder: base-folder
move: true
`

func writeFiles(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

func TestResolveAndMergeFile(t *testing.T) {
	t.Run("imports are merged below the importing file", func(t *testing.T) {
		fs := writeFiles(t, map[string]string{
			"/srv/conf/leaf.yaml":         leafConfig,
			"/srv/conf/intermediate.yaml": intermediateConfig,
			"/etc/gcs2drive/base.yaml":    baseConfig,
		})

		v := viper.New()
		require.NoError(t, ResolveAndMergeFile(fs, v, "/srv/conf/leaf.yaml"))

		assert.Equal(t, "leaf-folder", v.GetString("drive_folder"))
		assert.Equal(t, 524288, v.GetInt("chunk_size"))
		assert.True(t, v.GetBool("move"))
	})

	t.Run("missing import", func(t *testing.T) {
		fs := writeFiles(t, map[string]string{
			"/srv/conf/leaf.yaml":         leafConfig,
			"/srv/conf/intermediate.yaml": intermediateConfig,
		})

		err := ResolveAndMergeFile(fs, viper.New(), "/srv/conf/leaf.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no such file or directory")
	})

	t.Run("malformed import", func(t *testing.T) {
		fs := writeFiles(t, map[string]string{
			"/srv/conf/leaf.yaml":         leafConfig,
			"/srv/conf/intermediate.yaml": "malformed",
		})

		err := ResolveAndMergeFile(fs, viper.New(), "/srv/conf/leaf.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "could not resolve configuration imports")
	})

	t.Run("cyclic imports terminate", func(t *testing.T) {
		fs := writeFiles(t, map[string]string{
			"/a.yaml": "imports: [b.yaml]\nx: 1\n",
			"/b.yaml": "imports: [a.yaml]\ny: 2\n",
		})

		v := viper.New()
		require.NoError(t, ResolveAndMergeFile(fs, v, "/a.yaml"))
		assert.Equal(t, 1, v.GetInt("x"))
		assert.Equal(t, 2, v.GetInt("y"))
	})

	t.Run("missing file and bad extension", func(t *testing.T) {
		fs := writeFiles(t, map[string]string{"/conf.ini2": "x=1"})

		assert.Error(t, ResolveAndMergeFile(fs, viper.New(), "/nope.yaml"))
		assert.Error(t, ResolveAndMergeFile(fs, viper.New(), "/conf.ini2"))
	})
}

type nestedConfig struct {
	Port int `mapstructure:"port"`
}

type bindConfig struct {
	Folder string        `mapstructure:"drive_folder"`
	Server *nestedConfig `mapstructure:"server"`
	Ignore string
}

func TestBindEnvsRecursive(t *testing.T) {
	t.Setenv("GCS2DRIVE_DRIVE_FOLDER", "from-env")
	t.Setenv("GCS2DRIVE_SERVER_PORT", "9090")

	v := viper.New()
	v.SetEnvPrefix("gcs2drive")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	c := &bindConfig{}
	require.NoError(t, BindEnvsRecursive(v, c, ""))
	require.NoError(t, v.Unmarshal(c))

	assert.Equal(t, "from-env", c.Folder)
	require.NotNil(t, c.Server)
	assert.Equal(t, 9090, c.Server.Port)
}

func TestBindEnvsRecursive_KeepsLegacyBinding(t *testing.T) {
	t.Setenv("DRIVEFOLDER", "legacy-folder")
	os.Unsetenv("GCS2DRIVE_DRIVE_FOLDER")

	v, err := NewViper(ViperParams{
		EnvPrefix:  "gcs2drive",
		LegacyEnvs: map[string]string{"drive_folder": "DRIVEFOLDER"},
	})
	require.NoError(t, err)

	c := &bindConfig{}
	require.NoError(t, BindEnvsRecursive(v, c, ""))
	require.NoError(t, v.Unmarshal(c))
	assert.Equal(t, "legacy-folder", c.Folder)
}

func TestBindEnvsRecursive_AutomaticEnv(t *testing.T) {
	t.Setenv("GCS2DRIVE_DRIVE_FOLDER", "from-env")
	t.Setenv("GCS2DRIVE_SERVER_PORT", "9090")

	v, err := NewViper(ViperParams{EnvPrefix: "gcs2drive"})
	require.NoError(t, err)
	require.True(t, v.IsSet("drive_folder"))

	c := &bindConfig{}
	require.NoError(t, BindEnvsRecursive(v, c, ""))
	require.NoError(t, v.Unmarshal(c))

	assert.Equal(t, "from-env", c.Folder)
	require.NotNil(t, c.Server)
	assert.Equal(t, 9090, c.Server.Port)
}

func TestNewViper(t *testing.T) {
	t.Run("legacy env names", func(t *testing.T) {
		t.Setenv("DRIVEFOLDER", "legacy-folder")
		os.Unsetenv("GCS2DRIVE_DRIVE_FOLDER")

		v, err := NewViper(ViperParams{
			EnvPrefix:  "gcs2drive",
			LegacyEnvs: map[string]string{"drive_folder": "DRIVEFOLDER"},
		})
		require.NoError(t, err)
		assert.Equal(t, "legacy-folder", v.GetString("drive_folder"))
	})

	t.Run("prefixed env wins over legacy name", func(t *testing.T) {
		t.Setenv("DRIVEFOLDER", "legacy-folder")
		t.Setenv("GCS2DRIVE_DRIVE_FOLDER", "prefixed-folder")

		v, err := NewViper(ViperParams{
			EnvPrefix:  "gcs2drive",
			LegacyEnvs: map[string]string{"drive_folder": "DRIVEFOLDER"},
		})
		require.NoError(t, err)
		assert.Equal(t, "prefixed-folder", v.GetString("drive_folder"))
	})

	t.Run("flags and config file", func(t *testing.T) {
		fs := writeFiles(t, map[string]string{"/conf.yaml": "move: true\n"})
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.Bool("debug", false, "")
		require.NoError(t, flags.Parse([]string{"--debug"}))

		v, err := NewViper(ViperParams{EnvPrefix: "gcs2drive", Flags: flags, ConfigFile: "/conf.yaml", Fs: fs})
		require.NoError(t, err)
		assert.True(t, v.GetBool("debug"))
		assert.True(t, v.GetBool("move"))
	})

	t.Run("unreadable config file", func(t *testing.T) {
		_, err := NewViper(ViperParams{EnvPrefix: "gcs2drive", ConfigFile: "/missing.yaml", Fs: afero.NewMemMapFs()})
		assert.Error(t, err)
	})
}
