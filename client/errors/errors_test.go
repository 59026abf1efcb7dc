package errors

import (
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatErrorOrNil(t *testing.T) {
	var merr *multierror.Error
	assert.NoError(t, FormatErrorOrNil(merr))

	first := errors.New("remove installer")
	merr = multierror.Append(merr, first)
	err := FormatErrorOrNil(merr)
	require.Error(t, err)
	assert.Equal(t, "remove installer", err.Error())

	merr = multierror.Append(merr, errors.New("remove staging"))
	err = FormatErrorOrNil(merr)
	require.Error(t, err)
	assert.Equal(t, "2 errors occurred: remove installer; remove staging", err.Error())
	assert.ErrorIs(t, err, first)
}
