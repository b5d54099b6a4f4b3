package core

import "strings"

// Icon identifies the glyph shown next to a category. The set is closed:
// unknown names resolve to IconDefault.
type Icon string

const (
	IconDefault       Icon = "layout-grid"
	IconWallet        Icon = "wallet"
	IconBriefcase     Icon = "briefcase"
	IconHome          Icon = "home"
	IconUtensils      Icon = "utensils"
	IconCar           Icon = "car"
	IconFilm          Icon = "film"
	IconZap           Icon = "zap"
	IconShoppingBag   Icon = "shopping-bag"
	IconCoffee        Icon = "coffee"
	IconGift          Icon = "gift"
	IconGraduationCap Icon = "graduation-cap"
	IconHeart         Icon = "heart"
	IconMusic         Icon = "music"
	IconSmartphone    Icon = "smartphone"
	IconPlane         Icon = "plane"
	IconDumbbell      Icon = "dumbbell"
	IconDog           Icon = "dog"
	IconHammer        Icon = "hammer"
	IconShield        Icon = "shield"
	IconTag           Icon = "tag"
)

var icons = []Icon{
	IconWallet, IconBriefcase, IconHome, IconUtensils, IconCar, IconFilm,
	IconZap, IconShoppingBag, IconCoffee, IconGift, IconGraduationCap,
	IconHeart, IconMusic, IconSmartphone, IconPlane, IconDumbbell, IconDog,
	IconHammer, IconShield, IconTag,
}

var iconIndex = func() map[Icon]struct{} {
	m := make(map[Icon]struct{}, len(icons)+1)
	for _, i := range icons {
		m[i] = struct{}{}
	}
	m[IconDefault] = struct{}{}
	return m
}()

// Icons returns the selectable icons in display order.
func Icons() []Icon {
	out := make([]Icon, len(icons))
	copy(out, icons)
	return out
}

// ParseIcon resolves a stored icon name, falling back to IconDefault.
func ParseIcon(name string) Icon {
	i := Icon(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := iconIndex[i]; ok {
		return i
	}
	return IconDefault
}

func (i Icon) Valid() bool {
	_, ok := iconIndex[i]
	return ok
}
