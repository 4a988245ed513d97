package fever

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDList(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []int64
		wantErr bool
	}{
		{"ordered", "3,1,2", []int64{3, 1, 2}, false},
		{"spaces and blanks", " 4, ,5,", []int64{4, 5}, false},
		{"empty", "", []int64{}, false},
		{"invalid", "1,a", nil, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParseIDList(test.raw)
			if test.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestFlexIntAcceptsNumbersAndStrings(t *testing.T) {
	var v struct {
		A flexInt `json:"a"`
		B flexInt `json:"b"`
		C flexInt `json:"c"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"a":12,"b":"1760400000000001","c":null}`), &v))
	assert.Equal(t, flexInt(12), v.A)
	assert.Equal(t, flexInt(1760400000000001), v.B)
	assert.Equal(t, flexInt(0), v.C)

	require.Error(t, json.Unmarshal([]byte(`{"a":"x"}`), &v))
}

func TestFlexBool(t *testing.T) {
	var v struct {
		A flexBool `json:"a"`
		B flexBool `json:"b"`
		C flexBool `json:"c"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"a":1,"b":"0","c":true}`), &v))
	assert.True(t, bool(v.A))
	assert.False(t, bool(v.B))
	assert.True(t, bool(v.C))

	require.Error(t, json.Unmarshal([]byte(`{"a":2}`), &v))
}
