package logsvc

import (
	"bytes"
	"log"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/pratik071103/case-link-share/core"
)

func TestRollbarLogger_prepare(t *testing.T) {
	l := RollbarLogger{}
	err := errors.New("boom")

	tests := []struct {
		name string
		args []interface{}
		want []interface{}
	}{
		{name: "message only", want: []interface{}{"msg"}},
		{name: "error", args: []interface{}{err}, want: []interface{}{"msg", err}},
		{
			name: "case is moved to extras",
			args: []interface{}{err, Case{Slug: "jane-doe-x1y2z3"}},
			want: []interface{}{"msg", err, map[string]interface{}{"case_slug": "jane-doe-x1y2z3"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, l.prepare("msg", tt.args))
		})
	}
}

func TestRollbarLogger_prints(t *testing.T) {
	var buf bytes.Buffer
	l := NewRollbarLogger(log.New(&buf, "", 0), &core.Config{Env: "TEST"})
	l.Enable(false)

	l.Warn("autosave write failed", map[string]interface{}{"kind": "section"})
	assert.Equal(t, "autosave write failed\nmap[kind:section]\n", buf.String())
}

func TestNewStdLogger(t *testing.T) {
	dir := t.TempDir()
	std := NewStdLogger(&core.Config{LogFile: filepath.Join(dir, "api.log")}, "API : ")
	assert.Equal(t, "API : ", std.Prefix())
}
