package transcode

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/colgrid/colgrid/pkg/errors"
)

// IsYAMLSerializable reports whether a key/value pair survives a real
// round trip through the YAML codec. It is a defensive pre-check used
// before committing to YAML as a storage format: format-specific
// serializers fail for many reasons (unsupported types, cyclic data,
// constructs the loader rejects), and every one of them means "pick
// another format", so all failure kinds collapse to false here.
func IsYAMLSerializable(key string, value interface{}) bool {
	return yamlRoundTrip(key, value) == nil
}

// yamlRoundTrip performs the encode+decode and names the failure kind.
// yaml.Marshal panics rather than returning an error for some
// unmarshalable inputs, so the encode step is isolated behind a
// recover.
func yamlRoundTrip(key string, value interface{}) error {
	out, err := marshalYAML(map[string]interface{}{key: value})
	if err != nil {
		return err
	}

	var decoded map[string]interface{}
	if err := yaml.Unmarshal(out, &decoded); err != nil {
		return errors.Wrap(err, errors.ErrorTypeDecode, "yaml reload failed")
	}
	return nil
}

func marshalYAML(v map[string]interface{}) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrorTypeEncode, fmt.Sprintf("yaml encode panic: %v", r))
		}
	}()

	out, err = yaml.Marshal(v)
	if err != nil {
		err = errors.Wrap(err, errors.ErrorTypeEncode, "yaml encode failed")
	}
	return out, err
}
