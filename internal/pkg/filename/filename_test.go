package filename

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecure(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"My cool movie.mov", "My_cool_movie.mov"},
		{"../../../etc/passwd", "etc_passwd"},
		{`..\..\windows\win.ini`, "windows_win.ini"},
		{"i contain cool ümläuts.txt", "i_contain_cool_umlauts.txt"},
		{"  spaced\tout  name.png ", "spaced_out_name.png"},
		{"rm -rf *;.txt", "rm_-rf_.txt"},
		{"._hidden.txt_", "hidden.txt"},
		{"con.txt", "_con.txt"},
		{"日本語", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Secure(tt.in))
		})
	}
}

func TestExt(t *testing.T) {
	assert.Equal(t, "pdf", Ext("report.PDF"))
	assert.Equal(t, "gz", Ext("archive.tar.gz"))
	assert.Equal(t, "", Ext("README"))
	assert.Equal(t, "", Ext("trailing."))
}

func TestAllowed(t *testing.T) {
	allowed := []string{"txt", "pdf", "png", "jpg", "jpeg", "gif"}

	assert.True(t, Allowed("report.pdf", allowed))
	assert.True(t, Allowed("Photo.JPEG", allowed))
	assert.True(t, Allowed("archive.tar.txt", allowed))
	assert.False(t, Allowed("malware.exe", allowed))
	assert.False(t, Allowed("txt", allowed))
	assert.False(t, Allowed("pdf.", allowed))
	assert.False(t, Allowed("", allowed))
}
