package configutils

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// ImportKey is the config value listing further files to merge in before
// the file that names them.
var ImportKey = "imports"

// ResolveAndMergeFile reads the configuration file at filePath from fs,
// resolves its imports depth-first and merges everything into v. Values in
// the importing file override values from the files it imports.
func ResolveAndMergeFile(fs afero.Fs, v *viper.Viper, filePath string) error {
	if ok, err := afero.Exists(fs, filePath); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("config file %s: no such file or directory", filePath)
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == "" {
		return errors.New("configuration file has no extension")
	}
	if !supportedExt(ext[1:]) {
		return fmt.Errorf("unsupported configuration file extension: %s", ext)
	}

	v.SetFs(fs)
	v.SetConfigType(ext[1:])
	v.SetConfigFile(filePath)
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	if err := resolveAllImports(fs, v); err != nil {
		return fmt.Errorf("could not resolve configuration imports: %w", err)
	}
	return nil
}

func supportedExt(ext string) bool {
	for _, e := range viper.SupportedExts {
		if ext == e {
			return true
		}
	}
	return false
}

// resolveImports walks the import graph. visited is filled in pre-order to
// break cycles, configs in post-order so children merge before parents.
func resolveImports(fs afero.Fs, v *viper.Viper, configs *[]string, visited map[string]struct{}) error {
	for _, i := range v.GetStringSlice(ImportKey) {
		if i == "" {
			continue
		}

		path := filepath.Clean(i)
		if !filepath.IsAbs(i) {
			path = filepath.Join(filepath.Dir(v.ConfigFileUsed()), i)
		}

		if ok, err := afero.Exists(fs, path); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("import %s: no such file or directory", path)
		}

		if _, seen := visited[path]; seen {
			continue
		}
		visited[path] = struct{}{}

		child := viper.New()
		child.SetFs(fs)
		child.SetConfigFile(path)
		if err := child.ReadInConfig(); err != nil {
			return err
		}
		if err := resolveImports(fs, child, configs, visited); err != nil {
			return err
		}
		*configs = append(*configs, path)
	}
	return nil
}

func resolveAllImports(fs afero.Fs, v *viper.Viper) error {
	var configs []string
	if err := resolveImports(fs, v, &configs, map[string]struct{}{}); err != nil {
		return err
	}

	configs = append(configs, v.ConfigFileUsed())
	for _, path := range configs {
		if err := mergeConfigFile(fs, v, path); err != nil {
			return fmt.Errorf("merging config %s: %w", path, err)
		}
	}
	return nil
}

func mergeConfigFile(fs afero.Fs, v *viper.Viper, filePath string) error {
	r, err := fs.Open(filePath)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()
	return v.MergeConfig(r)
}

// BindEnvsRecursive binds every mapstructure-tagged field of the struct
// pointed to by iface, including nested structs, so that v.Unmarshal sees
// values that only exist in the environment.
func BindEnvsRecursive(v *viper.Viper, iface interface{}, path string) error {
	known := make(map[string]struct{})
	for _, k := range v.AllKeys() {
		known[k] = struct{}{}
	}
	return bindEnvs(v, iface, path, known)
}

func bindEnvs(v *viper.Viper, iface interface{}, path string, known map[string]struct{}) error {
	val := reflect.ValueOf(iface).Elem()
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("mapstructure")
		if tag == "" || strings.HasPrefix(tag, ",") {
			continue
		}

		fullPath := tag
		if path != "" {
			fullPath = path + "." + tag
		}

		field := val.Field(i)
		if field.Kind() == reflect.Ptr {
			if field.IsNil() && field.Type().Elem().Kind() == reflect.Struct {
				field.Set(reflect.New(field.Type().Elem()))
			}
			field = field.Elem()
		}
		if field.Kind() == reflect.Struct {
			if err := bindEnvs(v, field.Addr().Interface(), fullPath, known); err != nil {
				return err
			}
			continue
		}

		// Keys viper already tracks keep their binding, which may list legacy
		// names. IsSet is no use here: with AutomaticEnv it reports env-only
		// keys as set, yet Unmarshal never sees them.
		if _, ok := known[strings.ToLower(fullPath)]; ok {
			continue
		}
		if err := v.BindEnv(fullPath); err != nil {
			return fmt.Errorf("failed to bind environment variable: %w", err)
		}
	}
	return nil
}

// BindLegacyEnvs binds config keys to additional, unprefixed environment
// variable names, e.g. "drive_folder" -> "DRIVEFOLDER". The prefixed form
// keeps working; viper checks the names in the order given.
func BindLegacyEnvs(v *viper.Viper, envPrefix string, legacy map[string]string) error {
	for key, env := range legacy {
		prefixed := strings.ToUpper(envPrefix + "_" + strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}
