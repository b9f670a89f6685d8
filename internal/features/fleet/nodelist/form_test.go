package nodelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multislave-config/internal/common"
	"multislave-config/internal/features/fleet/domain"
)

func TestInterpretFormHonorsCheckboxes(t *testing.T) {
	patch, err := InterpretForm(map[string]interface{}{
		"_description":       true,
		"description":        "$NAME agent",
		"_remoteFS":          false,
		"remoteFS":           "/ignored",
		"_numExecutors":      true,
		"numExecutors":       float64(3),
		"_mode":              true,
		"mode":               "EXCLUSIVE",
		"_removeLabelString": true,
		"removeLabelString":  "old",
		"labelString":        "unchecked",
	})
	require.NoError(t, err)

	require.NotNil(t, patch.Description)
	assert.Equal(t, "$NAME agent", *patch.Description)
	assert.Nil(t, patch.RemoteFS)
	require.NotNil(t, patch.NumExecutors)
	assert.Equal(t, "3", *patch.NumExecutors)
	require.NotNil(t, patch.Mode)
	assert.Equal(t, domain.ModeExclusive, *patch.Mode)
	assert.Nil(t, patch.SetLabels)
	assert.Nil(t, patch.AddLabels)
	require.NotNil(t, patch.RemoveLabels)
	assert.Equal(t, "old", *patch.RemoveLabels)
}

func TestInterpretFormUndefinedMode(t *testing.T) {
	_, err := InterpretForm(map[string]interface{}{"_mode": true, "mode": "SOMETIMES"})
	assert.ErrorIs(t, err, common.ErrUndefinedMode)
}

func TestInterpretFormLauncherAndRetention(t *testing.T) {
	launcher := map[string]interface{}{"kind": "service", "username": "svc", "password": "pw"}
	retention := map[string]interface{}{
		"kind": "scheduled", "startTimeSpec": "0 6 * * *", "upTimeMins": float64(30), "keepUpWhenActive": true,
	}
	patch, err := InterpretForm(map[string]interface{}{
		"_launcher":          true,
		"launcher":           launcher,
		"_retentionStrategy": true,
		"retentionStrategy":  retention,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ServiceLauncher{Username: "svc", Password: "pw"}, patch.Launcher)
	assert.Equal(t, domain.ScheduledRetention{StartTimeSpec: "0 6 * * *", UpTimeMins: 30, KeepUpWhenActive: true},
		patch.RetentionStrategy)

	_, err = InterpretForm(map[string]interface{}{
		"_launcher": true,
		"launcher":  map[string]interface{}{"kind": "telepathy"},
	})
	assert.True(t, common.IsInvalidInput(err))
}

func TestInterpretFormProperties(t *testing.T) {
	t.Run("single objects", func(t *testing.T) {
		patch, err := InterpretForm(map[string]interface{}{
			"addOrChangeProperties": map[string]interface{}{
				"kind": "environment-variables",
				"env":  []interface{}{map[string]interface{}{"key": "A", "value": "1"}},
			},
			"removeProperties": map[string]interface{}{"kind": "tool-locations"},
		})
		require.NoError(t, err)
		assert.Equal(t, []domain.NodeProperty{
			domain.EnvironmentVariablesProperty{Vars: []domain.EnvVar{{Key: "A", Value: "1"}}},
		}, patch.AddOrChangeProperties)
		assert.Equal(t, []string{"tool-locations"}, patch.RemoveProperties)
	})

	t.Run("lists", func(t *testing.T) {
		patch, err := InterpretForm(map[string]interface{}{
			"removeProperties": []interface{}{
				map[string]interface{}{"kind": "tool-locations"},
				map[string]interface{}{"kind": "environment-variables"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"tool-locations", "environment-variables"}, patch.RemoveProperties)
		assert.Nil(t, patch.AddOrChangeProperties)
	})

	t.Run("missing kind", func(t *testing.T) {
		_, err := InterpretForm(map[string]interface{}{
			"removeProperties": []interface{}{map[string]interface{}{}},
		})
		assert.True(t, common.IsInvalidInput(err))
	})
}

func TestInterpretFormEmpty(t *testing.T) {
	patch, err := InterpretForm(map[string]interface{}{})
	require.NoError(t, err)
	assert.True(t, patch.IsEmpty())
}
