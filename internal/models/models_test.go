package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled} {
		assert.True(t, ValidStatus(s), s)
	}
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("rescheduled"))
	assert.False(t, ValidStatus("Pending"))
}

func TestClinicOffers(t *testing.T) {
	tagged := &Clinic{Name: "Happy Tail", Services: []string{ServiceGrooming, ServiceBoarding}}
	assert.True(t, tagged.Offers(ServiceGrooming))
	assert.False(t, tagged.Offers(ServiceMedical))
	assert.True(t, tagged.Offers(""), "empty tag matches all")

	// Untagged records fall back to the legacy name heuristic.
	legacy := &Clinic{Name: "Paws Vet"}
	assert.True(t, legacy.Offers(ServiceMedical))
	assert.False(t, legacy.Offers(ServiceGrooming))

	legacySpa := &Clinic{Name: "Furry Spa Center"}
	assert.True(t, legacySpa.Offers(ServiceGrooming))
}

func TestResizePets(t *testing.T) {
	pets := []Pet{{Type: "Cat"}, {Type: "Dog"}, {Type: "Parrot"}}

	t.Run("Truncate", func(t *testing.T) {
		out := ResizePets(pets, 2)
		assert.Len(t, out, 2)
		assert.Equal(t, "Cat", out[0].Type)
		assert.Equal(t, "Dog", out[1].Type)
	})

	t.Run("Extend", func(t *testing.T) {
		out := ResizePets(pets, 5)
		assert.Len(t, out, 5)
		assert.Equal(t, "Parrot", out[2].Type)
		assert.Equal(t, Pet{}, out[3])
		assert.Equal(t, Pet{}, out[4])
	})

	t.Run("Same", func(t *testing.T) {
		assert.Len(t, ResizePets(pets, 3), 3)
	})

	t.Run("Negative", func(t *testing.T) {
		assert.Len(t, ResizePets(pets, -1), 0)
	})
}

func TestToggleFavorite(t *testing.T) {
	u := &User{}
	u.ToggleFavorite("c1")
	assert.True(t, u.IsFavorite("c1"))

	u.ToggleFavorite("c2")
	assert.Equal(t, []string{"c1", "c2"}, u.Favorites)

	u.ToggleFavorite("c1")
	assert.False(t, u.IsFavorite("c1"))
	assert.Equal(t, []string{"c2"}, u.Favorites)
}
