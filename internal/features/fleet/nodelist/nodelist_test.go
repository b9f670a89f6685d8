package nodelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multislave-config/internal/common"
	"multislave-config/internal/features/fleet/domain"
	"multislave-config/internal/features/fleet/registry"
	"multislave-config/internal/features/fleet/setting"
)

func newSlave(t *testing.T, spec domain.SlaveSpec) *domain.Slave {
	t.Helper()
	s, err := domain.NewSlave(spec)
	require.NoError(t, err)
	return s
}

func named(t *testing.T, name string) *domain.Slave {
	return newSlave(t, domain.SlaveSpec{Name: name})
}

func strptr(s string) *string { return &s }

func TestIsEmpty(t *testing.T) {
	assert.True(t, NodeList{}.IsEmpty())
	assert.True(t, NodeList{&domain.ForeignNode{Name: "cloud"}}.IsEmpty())
	assert.False(t, NodeList{&domain.ForeignNode{Name: "cloud"}, named(t, "a")}.IsEmpty())
}

func TestSortByNameAndString(t *testing.T) {
	list := NodeList{named(t, "c"), named(t, "a"), &domain.ForeignNode{Name: "b"}}
	assert.Equal(t, "a b c", list.SortByName().String())
	assert.Equal(t, []string{"a", "b", "c"}, list.Names())
}

func TestFirstSlaveSkipsForeignNodes(t *testing.T) {
	a := named(t, "a")
	list := NodeList{&domain.ForeignNode{Name: "cloud"}, a}
	assert.Same(t, a, list.FirstSlave())
	assert.Len(t, list.Slaves(), 1)
}

func TestComplementAndStillExist(t *testing.T) {
	a, b, c := named(t, "a"), named(t, "b"), named(t, "c")
	reg := registry.NewMemory(a, b, c)

	list := NodeList{b}
	assert.Equal(t, []domain.Node{a, c}, list.Complement(reg))
	assert.True(t, list.SlavesStillExist(reg))

	assert.False(t, NodeList{b, named(t, "gone")}.SlavesStillExist(reg))
}

func TestHasLabels(t *testing.T) {
	list := NodeList{
		newSlave(t, domain.SlaveSpec{Name: "a", Labels: "linux  x86"}),
		newSlave(t, domain.SlaveSpec{Name: "b", Labels: "windows"}),
	}

	assert.True(t, list.HasLabels(""))
	assert.True(t, NodeList{}.HasLabels(""))
	assert.True(t, list.HasLabels("linux windows"))
	assert.True(t, list.HasLabels(" x86 "))
	assert.False(t, list.HasLabels("linux arm"))
	assert.False(t, list.HasLabels("lin"), "labels match whole tokens")
}

func TestSummaries(t *testing.T) {
	list := NodeList{
		newSlave(t, domain.SlaveSpec{Name: "a", Labels: "l", RemoteFS: "/fs", NumExecutors: "2", Description: "d"}),
		&domain.ForeignNode{Name: "cloud"},
	}
	assert.Equal(t, []Summary{{Name: "a", Labels: "l", Executors: 2, RemoteFS: "/fs", Description: "d"}}, list.Summaries())
}

func TestGetCommon(t *testing.T) {
	tests := []struct {
		name   string
		descs  map[string]string
		want   string
		wantOK bool
	}{
		{"literal", map[string]string{"a": "same", "b": "same"}, "same", true},
		{"symbolic", map[string]string{"a": "a-x", "b": "b-x"}, "$NAME-x", true},
		{"divergent", map[string]string{"a": "hello", "b": "world"}, "", false},
		{"literal wins over symbolic", map[string]string{"a": "a", "b": "a"}, "a", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			list := NodeList{
				newSlave(t, domain.SlaveSpec{Name: "a", Description: tc.descs["a"]}),
				&domain.ForeignNode{Name: "cloud", Description: "ignored"},
				newSlave(t, domain.SlaveSpec{Name: "b", Description: tc.descs["b"]}),
			}
			got, ok, err := list.GetCommon(setting.Description)
			require.NoError(t, err)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetCommonEmptyList(t *testing.T) {
	_, _, err := NodeList{&domain.ForeignNode{Name: "cloud"}}.GetCommon(setting.Labels)
	assert.ErrorIs(t, err, common.ErrEmptyNodeList)
}

func TestGetCommonTypeMismatch(t *testing.T) {
	list := NodeList{newSlave(t, domain.SlaveSpec{Name: "a", Launcher: domain.JNLPLauncher{}})}
	_, _, err := list.GetCommon(setting.LaunchCommand)
	assert.True(t, common.IsTypeMismatchError(err))
}

func TestCommonMode(t *testing.T) {
	mode, ok, err := NodeList{
		newSlave(t, domain.SlaveSpec{Name: "a", Mode: domain.ModeExclusive}),
		&domain.ForeignNode{Name: "cloud"},
		newSlave(t, domain.SlaveSpec{Name: "b", Mode: domain.ModeExclusive}),
	}.CommonMode()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.ModeExclusive, mode)

	_, ok, err = NodeList{named(t, "a"), newSlave(t, domain.SlaveSpec{Name: "b", Mode: domain.ModeExclusive})}.CommonMode()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCommonLauncher(t *testing.T) {
	t.Run("divergent commands give an empty command", func(t *testing.T) {
		list := NodeList{
			newSlave(t, domain.SlaveSpec{Name: "a", Launcher: domain.CommandLauncher{Command: "start.sh"}}),
			newSlave(t, domain.SlaveSpec{Name: "b", Launcher: domain.CommandLauncher{Command: "run.sh"}}),
		}
		launcher, err := list.CommonLauncher()
		require.NoError(t, err)
		require.NotNil(t, launcher)
		assert.Equal(t, domain.CommandLauncher{Command: ""}, launcher)

		desc, err := list.LauncherDescription()
		require.NoError(t, err)
		assert.Equal(t, "The slaves have different launch commands", desc)
	})

	t.Run("symbolic command", func(t *testing.T) {
		list := NodeList{
			newSlave(t, domain.SlaveSpec{Name: "a", Launcher: domain.CommandLauncher{Command: "ssh a"}}),
			newSlave(t, domain.SlaveSpec{Name: "b", Launcher: domain.CommandLauncher{Command: "ssh b"}}),
		}
		launcher, err := list.CommonLauncher()
		require.NoError(t, err)
		assert.Equal(t, domain.CommandLauncher{Command: "ssh $NAME"}, launcher)
	})

	t.Run("service launcher with partial divergence", func(t *testing.T) {
		list := NodeList{
			newSlave(t, domain.SlaveSpec{Name: "a", Launcher: domain.ServiceLauncher{Username: "u", Password: "p1"}}),
			newSlave(t, domain.SlaveSpec{Name: "b", Launcher: domain.ServiceLauncher{Username: "u", Password: "p2"}}),
		}
		launcher, err := list.CommonLauncher()
		require.NoError(t, err)
		assert.Equal(t, domain.ServiceLauncher{Username: "u"}, launcher)

		desc, err := list.LauncherDescription()
		require.NoError(t, err)
		assert.Equal(t, "The slaves have different passwords", desc)
	})

	t.Run("jnlp launchers agree", func(t *testing.T) {
		l := domain.JNLPLauncher{Tunnel: "host:1", VMArgs: "-Xmx1g"}
		list := NodeList{
			newSlave(t, domain.SlaveSpec{Name: "a", Launcher: l}),
			newSlave(t, domain.SlaveSpec{Name: "b", Launcher: l}),
		}
		launcher, err := list.CommonLauncher()
		require.NoError(t, err)
		assert.Equal(t, l, launcher)

		desc, err := list.LauncherDescription()
		require.NoError(t, err)
		assert.Empty(t, desc)
	})

	t.Run("different kinds", func(t *testing.T) {
		list := NodeList{
			newSlave(t, domain.SlaveSpec{Name: "a", Launcher: domain.CommandLauncher{Command: "x"}}),
			newSlave(t, domain.SlaveSpec{Name: "b", Launcher: domain.JNLPLauncher{}}),
		}
		launcher, err := list.CommonLauncher()
		require.NoError(t, err)
		assert.Nil(t, launcher)

		desc, err := list.LauncherDescription()
		require.NoError(t, err)
		assert.Equal(t, "The slaves use different launch methods", desc)
	})
}

func TestCommonRetentionStrategy(t *testing.T) {
	t.Run("demand falls back to defaults", func(t *testing.T) {
		list := NodeList{
			newSlave(t, domain.SlaveSpec{Name: "a", RetentionStrategy: domain.DemandRetention{InDemandDelay: 3, IdleDelay: 5}}),
			newSlave(t, domain.SlaveSpec{Name: "b", RetentionStrategy: domain.DemandRetention{InDemandDelay: 4, IdleDelay: 6}}),
		}
		strategy, err := list.CommonRetentionStrategy()
		require.NoError(t, err)
		assert.Equal(t, domain.DemandRetention{InDemandDelay: DefaultInDemandDelay, IdleDelay: DefaultIdleDelay}, strategy)

		desc, err := list.RetentionDescription()
		require.NoError(t, err)
		assert.Equal(t, "The slaves have different in demand delays and idle delays", desc)
	})

	t.Run("scheduled partial divergence", func(t *testing.T) {
		list := NodeList{
			newSlave(t, domain.SlaveSpec{Name: "a", RetentionStrategy: domain.ScheduledRetention{
				StartTimeSpec: "0 8 * * *", UpTimeMins: 60, KeepUpWhenActive: false}}),
			newSlave(t, domain.SlaveSpec{Name: "b", RetentionStrategy: domain.ScheduledRetention{
				StartTimeSpec: "0 9 * * *", UpTimeMins: 60, KeepUpWhenActive: true}}),
		}
		strategy, err := list.CommonRetentionStrategy()
		require.NoError(t, err)
		assert.Equal(t, domain.ScheduledRetention{StartTimeSpec: "", UpTimeMins: 60, KeepUpWhenActive: true}, strategy)

		desc, err := list.RetentionDescription()
		require.NoError(t, err)
		assert.Equal(t, "The slaves have different startup schedules and keep online while in use", desc)
	})

	t.Run("always", func(t *testing.T) {
		list := NodeList{named(t, "a"), named(t, "b")}
		strategy, err := list.CommonRetentionStrategy()
		require.NoError(t, err)
		assert.Equal(t, domain.AlwaysRetention{}, strategy)

		desc, err := list.RetentionDescription()
		require.NoError(t, err)
		assert.Empty(t, desc)
	})

	t.Run("different kinds", func(t *testing.T) {
		list := NodeList{
			named(t, "a"),
			newSlave(t, domain.SlaveSpec{Name: "b", RetentionStrategy: domain.DemandRetention{IdleDelay: 1}}),
		}
		strategy, err := list.CommonRetentionStrategy()
		require.NoError(t, err)
		assert.Nil(t, strategy)

		desc, err := list.RetentionDescription()
		require.NoError(t, err)
		assert.Equal(t, "The slaves use different availability strategies", desc)
	})
}

func TestCommonProperties(t *testing.T) {
	env := domain.EnvironmentVariablesProperty{Vars: []domain.EnvVar{{Key: "JAVA_HOME", Value: "/opt/jdk"}}}
	toolsA := domain.ToolLocationProperty{Locations: []domain.ToolLocation{{Name: "maven", Home: "/opt/mvn3"}}}
	toolsB := domain.ToolLocationProperty{Locations: []domain.ToolLocation{{Name: "maven", Home: "/opt/mvn2"}}}

	list := NodeList{
		newSlave(t, domain.SlaveSpec{Name: "a", Properties: []domain.NodeProperty{toolsA, env}}),
		newSlave(t, domain.SlaveSpec{Name: "b", Properties: []domain.NodeProperty{env, toolsB}}),
	}
	props, err := list.CommonProperties()
	require.NoError(t, err)
	assert.Equal(t, []domain.NodeProperty{env}, props)

	props, err = NodeList{named(t, "a")}.CommonProperties()
	require.NoError(t, err)
	assert.Empty(t, props)
}

func TestDifferences(t *testing.T) {
	assert.Equal(t, "", differences(map[string]bool{"x": false}, "x"))
	assert.Equal(t, "The slaves have different x", differences(map[string]bool{"x": true}, "x"))
	assert.Equal(t, "The slaves have different x, y and z",
		differences(map[string]bool{"x": true, "y": true, "z": true}, "x", "y", "z"))
}
