package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multislave-config/internal/common"
)

func TestNewSlaveDefaults(t *testing.T) {
	slave, err := NewSlave(SlaveSpec{Name: "slave1"})
	require.NoError(t, err)

	assert.Equal(t, 1, slave.NumExecutors(), "non numeric executor count falls back to one")
	assert.Equal(t, ModeNormal, slave.Mode())
	assert.Equal(t, LauncherJNLP, slave.Launcher().Kind())
	assert.Equal(t, RetentionAlways, slave.RetentionStrategy().Kind())
	assert.Empty(t, slave.Properties())
}

func TestNewSlaveValidation(t *testing.T) {
	tests := []struct {
		name string
		spec SlaveSpec
	}{
		{"empty name", SlaveSpec{Name: ""}},
		{"unsafe name", SlaveSpec{Name: "a/b"}},
		{"dollar in name", SlaveSpec{Name: "$NAME"}},
		{"zero executors", SlaveSpec{Name: "a", NumExecutors: "0"}},
		{"negative executors", SlaveSpec{Name: "a", NumExecutors: "-3"}},
		{"bad mode", SlaveSpec{Name: "a", Mode: "SOMETIMES"}},
		{"bad cron", SlaveSpec{Name: "a", RetentionStrategy: ScheduledRetention{StartTimeSpec: "not a cron", UpTimeMins: 5}}},
		{"zero uptime", SlaveSpec{Name: "a", RetentionStrategy: ScheduledRetention{StartTimeSpec: "0 8 * * *"}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSlave(tc.spec)
			require.Error(t, err)
			assert.True(t, common.IsValidationError(err), "got %v", err)
		})
	}
}

func TestScheduledRetentionValidate(t *testing.T) {
	valid := ScheduledRetention{StartTimeSpec: "# comment\n0 8 * * 1-5\n\n30 20 * * *", UpTimeMins: 60}
	assert.NoError(t, valid.Validate())

	empty := ScheduledRetention{UpTimeMins: 1}
	assert.NoError(t, empty.Validate())
}

func TestSlaveSpecRoundTripKeepsProperties(t *testing.T) {
	prop := EnvironmentVariablesProperty{Vars: []EnvVar{{Key: "a", Value: "b"}}}
	slave, err := NewSlave(SlaveSpec{Name: "s", NumExecutors: "3", Properties: []NodeProperty{prop}})
	require.NoError(t, err)

	spec := slave.Spec()
	assert.Equal(t, "3", spec.NumExecutors)
	require.Len(t, spec.Properties, 1)

	// mutating the spec must not leak into the slave
	spec.Properties[0] = ToolLocationProperty{}
	assert.Equal(t, PropertyEnvironmentVariables, slave.Properties()[0].Kind())
}

func TestPropertiesEqual(t *testing.T) {
	a := EnvironmentVariablesProperty{Vars: []EnvVar{{Key: "k", Value: "v"}}}
	b := EnvironmentVariablesProperty{Vars: []EnvVar{{Key: "k", Value: "v"}}}
	c := EnvironmentVariablesProperty{Vars: []EnvVar{{Key: "k", Value: "other"}}}

	assert.True(t, PropertiesEqual(a, b))
	assert.False(t, PropertiesEqual(a, c))
	assert.False(t, PropertiesEqual(a, ToolLocationProperty{}))
	assert.True(t, PropertiesEqual(EnvironmentVariablesProperty{}, EnvironmentVariablesProperty{Vars: []EnvVar{}}),
		"nil and empty lists have the same content")
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("EXCLUSIVE")
	require.NoError(t, err)
	assert.Equal(t, ModeExclusive, mode)

	_, err = ParseMode("exclusive")
	assert.ErrorIs(t, err, common.ErrUndefinedMode)
}

func TestCodecRoundTrip(t *testing.T) {
	slave, err := NewSlave(SlaveSpec{
		Name:              "build-01",
		Description:       "linux builder",
		RemoteFS:          "/var/jenkins",
		NumExecutors:      "4",
		Mode:              ModeExclusive,
		Labels:            "linux x86",
		Launcher:          ServiceLauncher{Username: "admin", Password: "secret"},
		RetentionStrategy: ScheduledRetention{StartTimeSpec: "0 8 * * *", UpTimeMins: 30, KeepUpWhenActive: true},
		Properties: []NodeProperty{
			ToolLocationProperty{Locations: []ToolLocation{{Name: "jdk", Home: "/opt/jdk"}}},
		},
	})
	require.NoError(t, err)

	decoded, err := DecodeNode(EncodeNode(slave))
	require.NoError(t, err)
	assert.Equal(t, slave, decoded)

	foreign := &ForeignNode{Name: "cloud-1", Kind: "ec2", Labels: "cloud", Executors: 2, NodeMode: ModeNormal}
	decodedForeign, err := DecodeNode(EncodeNode(foreign))
	require.NoError(t, err)
	assert.Equal(t, foreign, decodedForeign)
}

func TestDecodeNodeUnknownLauncher(t *testing.T) {
	_, err := DecodeNode(NodeRecord{Name: "a", Kind: KindSlave, Launcher: &LauncherRecord{Kind: "ssh"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown launcher kind")
}

func TestDecodeObject(t *testing.T) {
	var rec LauncherRecord
	err := DecodeObject(map[string]interface{}{"kind": "command", "command": "ssh $NAME"}, &rec)
	require.NoError(t, err)

	l, err := rec.Launcher()
	require.NoError(t, err)
	assert.Equal(t, CommandLauncher{Command: "ssh $NAME"}, l)
}
