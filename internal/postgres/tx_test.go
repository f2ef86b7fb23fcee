package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAfterCommit_RunsImmediatelyOutsideTx(t *testing.T) {
	ran := false
	AfterCommit(context.Background(), func() { ran = true })
	assert.True(t, ran)
}

func TestAfterCommit_DeferredInsideTx(t *testing.T) {
	st := &txState{}
	ctx := context.WithValue(context.Background(), txKey{}, st)

	ran := false
	AfterCommit(ctx, func() { ran = true })

	assert.False(t, ran)
	assert.Len(t, st.afterCommit, 1)
}

func TestConn_FallsBackToDB(t *testing.T) {
	assert.Nil(t, Conn(context.Background(), nil))
}
