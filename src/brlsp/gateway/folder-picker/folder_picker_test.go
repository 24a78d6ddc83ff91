package folderpicker

import (
	"context"
	"errors"
	"testing"

	"github.com/dart-tools/brlsp/src/brlsp/entity"
	"github.com/dart-tools/brlsp/src/brlsp/factory"
	"github.com/dart-tools/brlsp/src/brlsp/gateway/ide-client/ideclientmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

func TestPick(t *testing.T) {
	ctx := context.WithValue(context.Background(), entity.SessionContextKey, factory.UUID())
	a := factory.WorkspaceFolder()
	b := factory.WorkspaceFolder()
	folders := []entity.WorkspaceFolder{a, b}
	watching := map[entity.FolderKey]bool{b.Key(): true}

	t.Run("selection", func(t *testing.T) {
		ideGateway := ideclientmock.NewMockGateway(gomock.NewController(t))
		ideGateway.EXPECT().ShowMessageRequest(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, params *protocol.ShowMessageRequestParams) (*protocol.MessageActionItem, error) {
				assert.Equal(t, "Select a workspace folder", params.Message)
				assert.Equal(t, protocol.MessageTypeInfo, params.Type)
				require.Len(t, params.Actions, 2)
				assert.Equal(t, a.Name+" ("+a.Path+") - Not watching", params.Actions[0].Title)
				assert.Equal(t, b.Name+" ("+b.Path+") - Currently watching", params.Actions[1].Title)
				return &params.Actions[1], nil
			})

		result, err := New(ideGateway).Pick(ctx, folders, watching)
		require.NoError(t, err)
		assert.Equal(t, &b, result)
	})

	t.Run("dismissed", func(t *testing.T) {
		ideGateway := ideclientmock.NewMockGateway(gomock.NewController(t))
		ideGateway.EXPECT().ShowMessageRequest(gomock.Any(), gomock.Any()).Return(nil, nil)

		result, err := New(ideGateway).Pick(ctx, folders, nil)
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("unknown selection", func(t *testing.T) {
		ideGateway := ideclientmock.NewMockGateway(gomock.NewController(t))
		ideGateway.EXPECT().ShowMessageRequest(gomock.Any(), gomock.Any()).Return(&protocol.MessageActionItem{Title: "other"}, nil)

		_, err := New(ideGateway).Pick(ctx, folders, nil)
		assert.Error(t, err)
	})

	t.Run("gateway error", func(t *testing.T) {
		ideGateway := ideclientmock.NewMockGateway(gomock.NewController(t))
		ideGateway.EXPECT().ShowMessageRequest(gomock.Any(), gomock.Any()).Return(nil, errors.New("closed"))

		_, err := New(ideGateway).Pick(ctx, folders, nil)
		assert.Error(t, err)
	})

	t.Run("no folders", func(t *testing.T) {
		result, err := New(ideclientmock.NewMockGateway(gomock.NewController(t))).Pick(ctx, nil, nil)
		require.NoError(t, err)
		assert.Nil(t, result)
	})
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
