/*
Package cluster runs machines whose states carry live objects.

Each state is declared with a factory and the handlers it implements. A
Manager keeps one object per resident state and drives construction and
eviction in step with the transitioner:

  - the handler runs on the object of the state that received the input;
  - the target state's object is built before the handler runs, so a handler
    holding the Manager (see Self) can feed further inputs safely;
  - objects of ephemeral states are dropped when the machine leaves them,
    objects of other states live as long as the instance;
  - an input with no transition moves the instance to its error state.

Factory parameters are bound once, at Build, to a source: an argument of the
entering input, a core attribute, a sibling state's object or the Manager.

	b := cluster.NewBuilder[*Core]()
	b.CoreAttr("count", func(c *Core) any { return c.Count })
	get, _ := b.DeclareInput("get")

	cluster.DefineState(b, "Counter", func(v cluster.Values) (*Counter, error) {
		n, _ := cluster.Get[int](v, "count")
		return &Counter{n: n}, nil
	}, cluster.Params(cluster.Auto("count"))).
		Handle(get, func(ctx context.Context, c *Counter, args cluster.Args) (any, error) {
			return c.n, nil
		})

	def, _ := b.Build()
	m, _ := def.New(ctx, &Core{Count: 2})
	n, _ := m.HandleInput(ctx, get) // 2
*/
package cluster
