package policy

const (
	APIVersion = "coffeeshop/v1"
	Kind       = "RoutePolicy"
)

// Operations guarded by the route policy.
const (
	OpListDrinks   = "drinks.list"
	OpDrinksDetail = "drinks.detail"
	OpCreateDrink  = "drinks.create"
	OpGetDrink     = "drinks.get"
	OpUpdateDrink  = "drinks.update"
	OpDeleteDrink  = "drinks.delete"
)

var Operations = []string{
	OpListDrinks,
	OpDrinksDetail,
	OpCreateDrink,
	OpGetDrink,
	OpUpdateDrink,
	OpDeleteDrink,
}

type Document struct {
	APIVersion string `yaml:"apiVersion"`
	Kind       string `yaml:"kind"`
	Metadata   struct {
		Name string `yaml:"name"`
	} `yaml:"metadata"`

	Routes []Route `yaml:"routes"`
}

// Route binds an operation to the permission a caller must hold.
// An empty permission makes the operation public.
type Route struct {
	Operation  string `yaml:"operation"`
	Permission string `yaml:"permission"`
}

// Default is the built-in policy used when no policy file is configured.
func Default() *Document {
	d := &Document{
		APIVersion: APIVersion,
		Kind:       Kind,
		Routes: []Route{
			{Operation: OpListDrinks},
			{Operation: OpDrinksDetail, Permission: "get:drinks-detail"},
			{Operation: OpCreateDrink, Permission: "post:drinks"},
			{Operation: OpGetDrink},
			{Operation: OpUpdateDrink, Permission: "patch:drinks"},
			{Operation: OpDeleteDrink, Permission: "delete:drinks"},
		},
	}
	d.Metadata.Name = "default"
	return d
}
