package runconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML run file and returns it with the raw bytes
// KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*RunFile, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read run file: %w", err)
	}

	rf, err := Parse(data)
	if err != nil {
		return nil, data, fmt.Errorf("%s: %w", path, err)
	}
	return rf, data, nil
}

// Parse decodes and validates a run file
func Parse(data []byte) (*RunFile, error) {
	var rf RunFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(&rf); err != nil && err != io.EOF {
		return nil, err
	}

	applyDefaults(&rf)

	if err := Validate(&rf); err != nil {
		return nil, err
	}
	return &rf, nil
}

// Hash generates SHA256 hash from RunFile (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(rf *RunFile) (string, error) {
	jsonBytes, err := json.Marshal(rf)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

func applyDefaults(rf *RunFile) {
	if rf.OnTagError == "" {
		rf.OnTagError = "abort"
	}
	if len(rf.Sinks) == 0 {
		rf.Sinks = []string{SinkFile}
	}
}
