package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/sgl-project/gcs2drive/internal/transfer"
)

// MockAgentModule is a mock implementation of the AgentModule interface for testing
type MockAgentModule struct {
	mock.Mock
}

func (m *MockAgentModule) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockAgentModule) ShortDescription() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockAgentModule) LongDescription() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockAgentModule) FxModules() []fx.Option {
	args := m.Called()
	return args.Get(0).([]fx.Option)
}

func (m *MockAgentModule) ConfigureCommand(cmd *cobra.Command) {
	m.Called(cmd)
}

func (m *MockAgentModule) Start() error {
	args := m.Called()
	return args.Error(0)
}

var _ AgentModule = (*MockAgentModule)(nil)

func TestCreateAgentCommand(t *testing.T) {
	mockModule := new(MockAgentModule)
	mockModule.On("Name").Return("mock-agent")
	mockModule.On("ShortDescription").Return("Mock Agent Short Description")
	mockModule.On("LongDescription").Return("Mock Agent Long Description")
	mockModule.On("ConfigureCommand", mock.AnythingOfType("*cobra.Command")).Run(func(args mock.Arguments) {
		cmd := args.Get(0).(*cobra.Command)
		cmd.Run = func(cmd *cobra.Command, args []string) {}
	})

	cmd := CreateAgentCommand(mockModule)

	assert.Equal(t, "mock-agent", cmd.Use)
	assert.Equal(t, "Mock Agent Short Description", cmd.Short)
	assert.Equal(t, "Mock Agent Long Description", cmd.Long)
	assert.NotNil(t, cmd.Run)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	debugFlag := cmd.PersistentFlags().Lookup("debug")
	require.NotNil(t, debugFlag)
	assert.Equal(t, "d", debugFlag.Shorthand)

	mockModule.AssertCalled(t, "ConfigureCommand", mock.AnythingOfType("*cobra.Command"))
}

func TestAgentStartError(t *testing.T) {
	sessionErr := errors.New("session rejected")
	runner := &mockRunner{}
	runner.On("Transfer", mock.Anything, transfer.Request{Bucket: "b", Object: "dir/a.txt"}).
		Return(nil, sessionErr)

	var out bytes.Buffer
	agent := &TransferAgent{runner: runner, out: &out}
	cmd := CreateAgentCommand(agent)
	require.NoError(t, cmd.ParseFlags([]string{"--bucket", "b", "--filename", "dir/a.txt"}))

	var module AgentModule = agent
	err := module.Start()
	assert.ErrorIs(t, err, sessionErr)
	assert.Empty(t, out.String())
	runner.AssertExpectations(t)
}

func TestRootCommandRegistersAgents(t *testing.T) {
	names := make([]string, 0, len(rootCmd.Commands()))
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "transfer")
	assert.Contains(t, rootCmd.Version, "gitVersion=")
}
