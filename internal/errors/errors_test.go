package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())

	err = Newf("formatted %s", "error")
	assert.Equal(t, "formatted error", err.Error())

	var appErr *ApplicationError
	assert.True(t, As(err, &appErr))
	assert.Equal(t, Unknown, appErr.Kind())
}

func TestWrapping(t *testing.T) {
	origErr := New("original error")
	wrappedErr := Wrap(origErr, "wrapped")
	assert.Equal(t, "wrapped: original error", wrappedErr.Error())
	assert.Equal(t, origErr, Unwrap(wrappedErr))

	wrappedFormatted := Wrapf(origErr, "formatted %s", "wrapper")
	assert.Equal(t, "formatted wrapper: original error", wrappedFormatted.Error())

	assert.Nil(t, Wrap(nil, "wrapper"))
	assert.Nil(t, Wrapf(nil, "formatted %s", "wrapper"))

	deepWrapped := Wrap(wrappedErr, "deeper")
	assert.Equal(t, "deeper: wrapped: original error", deepWrapped.Error())
	assert.True(t, Is(deepWrapped, origErr))
}

func TestFileError(t *testing.T) {
	fileErr := NewFileError("cannot read", "/labels/a.zpl", FileReadFailed, nil)
	assert.Equal(t, "cannot read: /labels/a.zpl", fileErr.Error())
	assert.Equal(t, "/labels/a.zpl", fileErr.Path())
	assert.Equal(t, FileReadFailed, fileErr.Kind())

	origErr := fmt.Errorf("permission denied")
	fileErr = NewFileError("cannot read", "/labels/a.zpl", FileReadFailed, origErr)
	assert.Equal(t, "cannot read: /labels/a.zpl: permission denied", fileErr.Error())
	assert.Equal(t, origErr, Unwrap(fileErr))

	assert.Equal(t, "file not found", ErrFileNotFound.Error())
	assert.True(t, IsFileNotFound(NewFileError("missing", "/x", FileNotFound, nil)))
	assert.False(t, IsFileNotFound(fileErr))
}

func TestConfigError(t *testing.T) {
	configErr := NewConfigError("invalid value", "delete_files", InvalidConfig, nil)
	assert.Equal(t, "invalid value: delete_files", configErr.Error())
	assert.Equal(t, "delete_files", configErr.Param())
	assert.True(t, IsInvalidConfig(configErr))

	wrapped := fmt.Errorf("loading: %w", configErr)
	assert.True(t, IsInvalidConfig(wrapped))
	assert.False(t, IsInvalidConfig(New("plain")))
}

func TestPrintError(t *testing.T) {
	printErr := NewPrintError("print failed", "Zebra", "/tmp/a.zpl.first", errors.New("exit status 1")).
		WithOutput("lpr: The printer or class does not exist.")

	assert.Equal(t,
		"print failed: /tmp/a.zpl.first on Zebra: exit status 1 (lpr: The printer or class does not exist.)",
		printErr.Error())
	assert.Equal(t, "Zebra", printErr.Printer())
	assert.Equal(t, "/tmp/a.zpl.first", printErr.Path())
	assert.True(t, IsPrintFailed(printErr))

	defaultErr := NewPrintError("print failed", "", "/tmp/a.zpl", nil)
	assert.Equal(t, "print failed: /tmp/a.zpl on default printer", defaultErr.Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, FileDeleteFailed, KindOf(NewFileError("x", "/p", FileDeleteFailed, nil)))
	assert.Equal(t, ConfigWriteFailed, KindOf(NewConfigError("x", "p", ConfigWriteFailed, nil)))
	assert.Equal(t, PrintFailed, KindOf(fmt.Errorf("outer: %w", NewPrintError("x", "", "", nil))))
	assert.Equal(t, Unknown, KindOf(errors.New("plain")))
	assert.Equal(t, Unknown, KindOf(nil))
}

func TestJoin(t *testing.T) {
	first := NewPrintError("print failed", "A", "/a", nil)
	second := NewFileError("remove failed", "/b", FileDeleteFailed, nil)
	joined := Join(first, second)

	assert.True(t, IsPrintFailed(joined))
	var fileErr *FileError
	assert.True(t, As(joined, &fileErr))
	assert.Equal(t, "/b", fileErr.Path())
}
