// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"testing"
)

func TestFilesystemPath_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path FilesystemPath
		want error
	}{
		{"resources/runtimes", nil},
		{"/opt/app/runtimes", nil},
		{`C:\app\runtimes`, nil},
		{"", ErrEmptyPath},
		{" \t", ErrEmptyPath},
		{"run\x00times", ErrInvalidPath},
	}

	for _, tt := range tests {
		err := tt.path.Validate()
		if tt.want == nil {
			if err != nil {
				t.Errorf("FilesystemPath(%q).Validate() = %v", tt.path, err)
			}
			continue
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("FilesystemPath(%q).Validate() = %v, want %v", tt.path, err, tt.want)
		}
	}
}
