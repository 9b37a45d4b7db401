package tools

import "fmt"

// Manager keeps the registered tools by name.
type Manager struct {
	tools map[string]Tool
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		tools: make(map[string]Tool),
	}
}

// Register registers a tool, replacing any previous tool with the same name.
func (m *Manager) Register(tool Tool) {
	m.tools[tool.Name()] = tool
}

// Get retrieves a tool by name.
func (m *Manager) Get(name string) (Tool, error) {
	tool, ok := m.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return tool, nil
}

// List returns all registered tools.
func (m *Manager) List() []Tool {
	ts := make([]Tool, 0, len(m.tools))
	for _, t := range m.tools {
		ts = append(ts, t)
	}
	return ts
}
