package platform

import (
	"errors"
	"sort"

	"github.com/go-drift/viewbridge/pkg/core"
)

// ViewChannelName is the method channel native hosts use to show named
// views and push data into them.
const ViewChannelName = "drift/platform_view_data"

// ViewChannel adapts a ViewRegistry to a native host over a MethodChannel.
//
// Inbound methods (native → Go), each taking a map argument:
//
//	showView       {name}         instantiate; unknown names answer {placeholder}
//	disposeView    {name}         end the view's attachment scope
//	setDataInteger {name, value}  and Float, Bool, String likewise
//	setDataObject  {name, value}  value is JSON object text
//	setDataArray   {name, value}  value is JSON array text
//
// Outbound methods (Go → native): onIntegerChanged, onFloatChanged,
// onBoolChanged, onStringChanged, onObjectChanged, onArrayChanged with
// {name, value}, and onEvent with {name, key, value}.
type ViewChannel struct {
	channel  *MethodChannel
	registry *ViewRegistry
	scopes   map[string]*core.Scope
}

// NewViewChannel registers the view channel and routes its calls to
// registry. Registry work is marshaled onto the UI thread with Dispatch.
func NewViewChannel(registry *ViewRegistry) *ViewChannel {
	c := &ViewChannel{
		channel:  NewMethodChannel(ViewChannelName),
		registry: registry,
		scopes:   make(map[string]*core.Scope),
	}
	c.channel.SetHandler(c.handleMethodCall)
	return c
}

// Shown returns the names of views currently shown through the channel.
func (c *ViewChannel) Shown() []string {
	var names []string
	DispatchAndWait(func() {
		names = make([]string, 0, len(c.scopes))
		for name := range c.scopes {
			names = append(names, name)
		}
	})
	sort.Strings(names)
	return names
}

// Close disposes every view shown through the channel and stops handling
// calls.
func (c *ViewChannel) Close() {
	c.channel.SetHandler(nil)
	DispatchAndWait(func() {
		for name, scope := range c.scopes {
			delete(c.scopes, name)
			scope.Dispose()
		}
	})
}

func (c *ViewChannel) handleMethodCall(method string, args any) (result any, err error) {
	m := parseMap(args)
	if m == nil {
		return nil, invalidArgs(method, "expected map arguments")
	}
	name, ok := parseString(m["name"])
	if !ok || name == "" {
		return nil, invalidArgs(method, "missing view name")
	}

	DispatchAndWait(func() {
		result, err = c.handle(method, name, m["value"])
	})
	return result, err
}

func (c *ViewChannel) handle(method, name string, value any) (any, error) {
	switch method {
	case "showView":
		return c.show(name)
	case "disposeView":
		return map[string]any{"disposed": c.dispose(name)}, nil
	}

	var delivered bool
	switch method {
	case "setDataInteger":
		v, ok := toInt64(value)
		if !ok {
			return nil, invalidArgs(method, "value must be an integer")
		}
		delivered = c.registry.SetDataInteger(name, v)
	case "setDataFloat":
		v, ok := toFloat64(value)
		if !ok {
			return nil, invalidArgs(method, "value must be a number")
		}
		delivered = c.registry.SetDataFloat(name, v)
	case "setDataBool":
		v, ok := value.(bool)
		if !ok {
			return nil, invalidArgs(method, "value must be a boolean")
		}
		delivered = c.registry.SetDataBool(name, v)
	case "setDataString":
		v, ok := parseString(value)
		if !ok {
			return nil, invalidArgs(method, "value must be a string")
		}
		delivered = c.registry.SetDataString(name, v)
	case "setDataObject":
		v, ok := parseString(value)
		if !ok {
			return nil, invalidArgs(method, "value must be JSON text")
		}
		delivered = c.registry.SetDataObject(name, v)
	case "setDataArray":
		v, ok := parseString(value)
		if !ok {
			return nil, invalidArgs(method, "value must be JSON text")
		}
		delivered = c.registry.SetDataArray(name, v)
	default:
		return nil, ErrMethodNotFound
	}
	return map[string]any{"delivered": delivered}, nil
}

func (c *ViewChannel) show(name string) (any, error) {
	c.dispose(name)

	scope := core.NewScope()
	_, err := c.registry.Instantiate(name, scope, c.callbacks(name))
	if err != nil {
		scope.Dispose()
		if errors.Is(err, ErrViewNotFound) {
			return map[string]any{"placeholder": PlaceholderText(name)}, nil
		}
		return nil, err
	}
	c.scopes[name] = scope
	return map[string]any{"shown": true}, nil
}

func (c *ViewChannel) dispose(name string) bool {
	scope, ok := c.scopes[name]
	if !ok {
		return false
	}
	delete(c.scopes, name)
	scope.Dispose()
	return true
}

func (c *ViewChannel) callbacks(name string) Callbacks {
	return Callbacks{
		OnInteger: func(v int64) { c.send("onIntegerChanged", name, v) },
		OnFloat:   func(v float64) { c.send("onFloatChanged", name, v) },
		OnBool:    func(v bool) { c.send("onBoolChanged", name, v) },
		OnString:  func(v string) { c.send("onStringChanged", name, v) },
		OnObject:  func(v string) { c.send("onObjectChanged", name, v) },
		OnArray:   func(v string) { c.send("onArrayChanged", name, v) },
		OnEvent: func(key, value string) {
			c.invoke("onEvent", map[string]any{"name": name, "key": key, "value": value})
		},
	}
}

func (c *ViewChannel) send(method, name string, value any) {
	c.invoke(method, map[string]any{"name": name, "value": value})
}

func (c *ViewChannel) invoke(method string, args map[string]any) {
	if _, err := c.channel.Invoke(method, args); err != nil {
		reportChannel("platform.ViewChannel."+method, c.channel.Name(), err)
	}
}
