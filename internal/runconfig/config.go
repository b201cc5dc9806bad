package runconfig

// RunFile is the YAML run definition passed with --run-file
//
//	input_path: ./data
//	output_path: ./out
//	workers: 4
//	on_tag_error: abort
//	sinks: [file, postgres]
//	preview_rows: 10
//	schedule: "0 0 3 * * *"
type RunFile struct {
	InputPath   string   `yaml:"input_path" json:"input_path"`
	OutputPath  string   `yaml:"output_path" json:"output_path"`
	Workers     int      `yaml:"workers" json:"workers"`
	OnTagError  string   `yaml:"on_tag_error" json:"on_tag_error"`
	Sinks       []string `yaml:"sinks" json:"sinks"`
	PreviewRows int      `yaml:"preview_rows" json:"preview_rows"`
	Schedule    string   `yaml:"schedule" json:"schedule"`
}

// Sink names
const (
	SinkFile     = "file"
	SinkPostgres = "postgres"
	SinkRedis    = "redis"
)

// HasSink reports whether name is listed in sinks
func (r *RunFile) HasSink(name string) bool {
	for _, s := range r.Sinks {
		if s == name {
			return true
		}
	}
	return false
}
