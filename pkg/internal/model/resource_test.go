package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/photoarchive/pkg/internal/model"
)

func TestResourcePrincipals(t *testing.T) {
	var r model.Resource

	assert.Nil(t, r.Principals())

	require.NoError(t, r.SetPrincipals([]uint{3, 7}))
	assert.Equal(t, "[3,7]", r.ACLPrincipals)
	assert.Equal(t, []uint{3, 7}, r.Principals())

	r.ACLPrincipals = "not-json"
	assert.Nil(t, r.Principals())
}

func TestAccountStatusUsable(t *testing.T) {
	for s, want := range map[model.AccountStatus]bool{
		model.AccountActive:      true,
		model.AccountRestricted:  true,
		model.AccountRestricted2: true,
		model.AccountDeactivated: false,
		model.AccountPending:     false,
		0:                        false,
	} {
		assert.Equal(t, want, s.Usable(), "status %d", s)
	}
}
