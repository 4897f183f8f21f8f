package config

import (
	"bytes"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const MAX_SLICE_LEN = 10

// Config stores global configuration
type Config struct {
	// Is development mode on
	IsDevelopment bool

	// REST API address. API used for monitoring etc.
	RESTListenAddress string

	// Maximum time the relayer will be closing before stop is forced.
	StopTimeout time.Duration

	// Logging level
	LogLevel string

	Database         Database
	ReadOnlyDatabase Database
	Redis            []Redis
	AppSync          AppSync
	Relayer          Relayer
	Pool             Pool
	Detector         Detector
	Gateway          Gateway
	Ika              Ika
	Evm              Evm
	Sui              Sui
	Solana           Solana
	Near             Near
	Profiler         Profiler
}

func setDefaults() {
	viper.SetDefault("IsDevelopment", "false")
	viper.SetDefault("RESTListenAddress", ":7777")
	viper.SetDefault("LogLevel", "DEBUG")
	viper.SetDefault("StopTimeout", "30s")

	setDatabaseDefaults()
	setReadOnlyDatabaseDefaults()
	setRedisDefaults()
	setAppSyncDefaults()
	setRelayerDefaults()
	setPoolDefaults()
	setDetectorDefaults()
	setGatewayDefaults()
	setIkaDefaults()
	setEvmDefaults()
	setSuiDefaults()
	setSolanaDefaults()
	setNearDefaults()
	setProfilerDefaults()
}

func Default() (config *Config) {
	config, _ = Load("")
	return
}

func IsIndex(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func BindEnv(path []string, val reflect.Value) {
	if val.Kind() == reflect.Slice {
		_, ok := val.Interface().([]Redis)
		if ok {
			for i := 0; i < MAX_SLICE_LEN; i++ {
				newPath := make([]string, len(path))
				copy(newPath, path)
				newPath = append(newPath, fmt.Sprintf("%d", i))
				BindEnv(newPath, reflect.ValueOf(Redis{}))
			}
		} else {
			// Slice of base types
			key := strings.ToLower(strings.Join(path, "."))
			env := "RELAYER_" + strcase.ToScreamingSnake(strings.Join(path, "_"))
			err := viper.BindEnv(key, env)
			if err != nil {
				panic(err)
			}
		}
	} else if val.Kind() != reflect.Struct {
		// Base types
		key := path[0]
		for _, p := range path[1:] {
			if IsIndex(p) {
				key += "[" + p + "]"
			} else {
				key += "." + p
			}
		}

		env := "RELAYER_" + strcase.ToScreamingSnake(strings.Join(path, "_"))
		err := viper.BindEnv(key, env)
		if err != nil {
			panic(err)
		}
	} else {
		// Iterates over struct fields
		for i := 0; i < val.NumField(); i++ {
			newPath := make([]string, len(path))
			copy(newPath, path)
			newPath = append(newPath, val.Type().Field(i).Name)
			BindEnv(newPath, val.Field(i))
		}
	}
}

func getSliceLength(key string) int {
	var max int
	for viperKey := range viper.AllSettings() {
		var idx int
		_, err := fmt.Sscanf(viperKey, key+"[%d]", &idx)
		if err != nil {
			continue
		}
		idx += 1
		if idx > max {
			max = idx
		}
	}
	return max
}

// Env-bound redis entries land in viper under indexed keys that the default
// unmarshal doesn't see, so they get decoded by hand
func unmarshalRedis(config *Config) (err error) {
	numEntries := getSliceLength("redis")
	if numEntries <= len(config.Redis) {
		return
	}

	out := make([]Redis, numEntries)
	copy(out, config.Redis)

	fields := reflect.TypeOf(Redis{})
	for i := 0; i < numEntries; i++ {
		values := make(map[string]interface{})
		for j := 0; j < fields.NumField(); j++ {
			name := fields.Field(j).Name
			key := fmt.Sprintf("redis[%d].%s", i, strings.ToLower(name))
			if viper.IsSet(key) {
				values[name] = viper.Get(key)
			}
		}
		if len(values) == 0 {
			continue
		}

		var decoder *mapstructure.Decoder
		decoder, err = mapstructure.NewDecoder(defaultDecoderConfig(&out[i]))
		if err != nil {
			return
		}
		err = decoder.Decode(values)
		if err != nil {
			return
		}
	}

	config.Redis = out
	return
}

func defaultDecoderConfig(output interface{}) *mapstructure.DecoderConfig {
	c := &mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           output,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	}
	return c
}

// Load configuration from file and env
func Load(filename string) (config *Config, err error) {
	viper.SetConfigType("json")

	setDefaults()

	// Visits every field and registers upper snake case ENV name for it
	// Works with embedded structs
	BindEnv([]string{}, reflect.ValueOf(Config{}))

	// Empty filename means we use default values
	if filename != "" {
		var content []byte
		/* #nosec */
		content, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}

		err = viper.ReadConfig(bytes.NewBuffer(content))
		if err != nil {
			return nil, err
		}
	}

	config = new(Config)
	err = viper.Unmarshal(&config)
	if err != nil {
		return nil, err
	}

	err = unmarshalRedis(config)
	if err != nil {
		return nil, err
	}

	return
}
