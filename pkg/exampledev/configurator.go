package exampledev

// ConfigBuilder stages changes to the CONFIG register. Fields that are not
// set keep the value last read from the device.
type ConfigBuilder struct {
	dev    *Device
	staged Config
}

func NewConfigBuilder(dev *Device) *ConfigBuilder {
	return &ConfigBuilder{
		dev:    dev,
		staged: dev.config, // copy current values
	}
}

func (obj *ConfigBuilder) Foo(option fooOption) *ConfigBuilder {
	obj.staged.foo = option
	return obj
}

func (obj *ConfigBuilder) Bar(option barOption) *ConfigBuilder {
	obj.staged.bar = option
	return obj
}

// Write sends the staged config to the device.
func (obj *ConfigBuilder) Write() error {
	return obj.dev.WriteConfig(obj.staged)
}
