package script

// Ping checks that the host answers and reports its version.
func (b *Builder) Ping() (Script, error) {
	return b.withFallback(spec{
		name: "ping",
		body: `return JSON.stringify({ ok: true, name: app.name(), version: app.version(), strategy: 'direct' });`,
	}, spec{
		name: "ping",
		body: `return JSON.stringify({ ok: true, name: app.name, version: app.version, strategy: 'bridge' });`,
	})
}
