package multires

import (
	"context"

	"multires/internal/database"
)

// Field binds one source image to one recipe namespace. It is the lookup
// surface for variants: asking for a variant never renders anything, it
// only ensures a row exists so the source and recipe are joined exactly
// once.
type Field struct {
	svc       *Service
	namespace string
	source    string
}

// Namespace returns the recipe namespace the field is bound to.
func (f *Field) Namespace() string {
	return f.namespace
}

// Source returns the storage path of the source image.
func (f *Field) Source() string {
	return f.source
}

// Variant returns the variant of the field's source for the given recipe,
// creating a pending row if none exists yet. Recipes from other namespaces
// are rejected so two applications sharing one database cannot cross wires.
func (f *Field) Variant(ctx context.Context, recipe *database.Recipe) (*database.Variant, error) {
	if recipe.Namespace != f.namespace {
		return nil, ErrNamespaceMismatch
	}
	return f.svc.db.GetOrCreateVariant(ctx, f.source, recipe.ID)
}

// VariantByTitle resolves the recipe by title within the field's namespace
// and returns its variant together with the recipe.
func (f *Field) VariantByTitle(ctx context.Context, title string) (*database.Variant, *database.Recipe, error) {
	recipe, err := f.svc.db.GetRecipeByTitle(ctx, f.namespace, title)
	if err != nil {
		return nil, nil, err
	}
	v, err := f.Variant(ctx, recipe)
	if err != nil {
		return nil, nil, err
	}
	return v, recipe, nil
}

// AllVariants materializes a variant row for every automatic recipe in the
// field's namespace and returns them alongside their recipes. Called after
// a source upload so automatic variants show up immediately, still pending.
func (f *Field) AllVariants(ctx context.Context) ([]*database.Variant, []*database.Recipe, error) {
	recipes, err := f.svc.db.ListRecipes(ctx, f.namespace, true)
	if err != nil {
		return nil, nil, err
	}

	variants := make([]*database.Variant, 0, len(recipes))
	for _, recipe := range recipes {
		v, err := f.Variant(ctx, recipe)
		if err != nil {
			return nil, nil, err
		}
		variants = append(variants, v)
	}
	return variants, recipes, nil
}
