package types

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=instructor student"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ScenarioCreateRequest struct {
	Name        string         `json:"name" validate:"required"`
	Description string         `json:"description"`
	IsPublic    bool           `json:"is_public"`
	Settings    map[string]any `json:"settings"`
}

type ScenarioUpdateRequest struct {
	Name        *string        `json:"name" validate:"omitempty,min=1"`
	Description *string        `json:"description"`
	IsPublic    *bool          `json:"is_public"`
	Settings    map[string]any `json:"settings"`
}

type RoleCreateRequest struct {
	Name     string `json:"name" validate:"required"`
	Color    string `json:"color" validate:"omitempty,hexcolor"`
	Icon     string `json:"icon"`
	Required bool   `json:"required"`
	Order    *int   `json:"order" validate:"omitempty,min=0"`
}

type RoleUpdateRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Color    *string `json:"color" validate:"omitempty,hexcolor"`
	Icon     *string `json:"icon"`
	Required *bool   `json:"required"`
	Order    *int    `json:"order" validate:"omitempty,min=0"`
}

type NodeCreateRequest struct {
	Kind      string   `json:"kind" validate:"required,oneof=auto decision final"`
	Title     string   `json:"title" validate:"required"`
	Content   string   `json:"content" validate:"required"`
	IsInitial bool     `json:"is_initial"`
	X         *float64 `json:"x" validate:"required_with=Y"`
	Y         *float64 `json:"y" validate:"required_with=X"`
}

type NodeUpdateRequest struct {
	Kind      *string `json:"kind" validate:"omitempty,oneof=auto decision final"`
	Title     *string `json:"title" validate:"omitempty,min=1"`
	Content   *string `json:"content" validate:"omitempty,min=1"`
	IsInitial *bool   `json:"is_initial"`
}

type NodeMoveRequest struct {
	X *float64 `json:"x" validate:"required"`
	Y *float64 `json:"y" validate:"required"`
}

type NodeOrderRequest struct {
	NodeIDs []string `json:"node_ids" validate:"required,min=1,dive,uuid"`
}

// OptionCreateRequest leaves label checks to the service so rule violations
// come back with their kind.
type OptionCreateRequest struct {
	Label string `json:"label"`
	Text  string `json:"text" validate:"required"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
	Score int    `json:"score"`
}

type OptionUpdateRequest struct {
	Text  *string `json:"text" validate:"omitempty,min=1"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
	Score *int    `json:"score"`
}

type ConnectionCreateRequest struct {
	FromNodeID string  `json:"from_node_id" validate:"required,uuid"`
	ToNodeID   string  `json:"to_node_id" validate:"required,uuid"`
	OptionID   *string `json:"option_id" validate:"omitempty,uuid"`
	Label      string  `json:"label"`
}
