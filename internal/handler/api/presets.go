package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/dukerupert/parcelry/internal/service"
)

// PresetHandler serves the address and package preset endpoints.
//
// PUT replaces every field of a preset. PATCH decodes the body onto the
// stored preset, so omitted fields keep their values.
type PresetHandler struct {
	presets service.PresetService
}

// NewPresetHandler creates a PresetHandler.
func NewPresetHandler(presets service.PresetService) *PresetHandler {
	return &PresetHandler{presets: presets}
}

// =============================================================================
// ADDRESS PRESETS
// =============================================================================

// ListAddresses handles GET /api/presets/addresses.
func (h *PresetHandler) ListAddresses(c echo.Context) error {
	presets, err := h.presets.ListAddressPresets(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, presets)
}

// GetAddress handles GET /api/presets/addresses/:id.
func (h *PresetHandler) GetAddress(c echo.Context) error {
	id, err := pathID(c, "id", "preset")
	if err != nil {
		return err
	}
	p, err := h.presets.GetAddressPreset(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// CreateAddress handles POST /api/presets/addresses.
func (h *PresetHandler) CreateAddress(c echo.Context) error {
	var p domain.AddressPreset
	if err := bindJSON(c, "preset.create", &p); err != nil {
		return err
	}
	if err := h.presets.CreateAddressPreset(c.Request().Context(), &p); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

// ReplaceAddress handles PUT /api/presets/addresses/:id.
func (h *PresetHandler) ReplaceAddress(c echo.Context) error {
	id, err := pathID(c, "id", "preset")
	if err != nil {
		return err
	}
	var p domain.AddressPreset
	if err := bindJSON(c, "preset.update", &p); err != nil {
		return err
	}
	p.ID = id
	if err := h.presets.UpdateAddressPreset(c.Request().Context(), &p); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// PatchAddress handles PATCH /api/presets/addresses/:id.
func (h *PresetHandler) PatchAddress(c echo.Context) error {
	id, err := pathID(c, "id", "preset")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := h.presets.GetAddressPreset(ctx, id)
	if err != nil {
		return err
	}
	if err := bindJSON(c, "preset.update", p); err != nil {
		return err
	}
	p.ID = id
	if err := h.presets.UpdateAddressPreset(ctx, p); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// DeleteAddress handles DELETE /api/presets/addresses/:id.
func (h *PresetHandler) DeleteAddress(c echo.Context) error {
	id, err := pathID(c, "id", "preset")
	if err != nil {
		return err
	}
	if err := h.presets.DeleteAddressPreset(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// =============================================================================
// PACKAGE PRESETS
// =============================================================================

// ListPackages handles GET /api/presets/packages.
func (h *PresetHandler) ListPackages(c echo.Context) error {
	presets, err := h.presets.ListPackagePresets(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, presets)
}

// GetPackage handles GET /api/presets/packages/:id.
func (h *PresetHandler) GetPackage(c echo.Context) error {
	id, err := pathID(c, "id", "preset")
	if err != nil {
		return err
	}
	p, err := h.presets.GetPackagePreset(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// CreatePackage handles POST /api/presets/packages.
func (h *PresetHandler) CreatePackage(c echo.Context) error {
	var p domain.PackagePreset
	if err := bindJSON(c, "preset.create", &p); err != nil {
		return err
	}
	if err := h.presets.CreatePackagePreset(c.Request().Context(), &p); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

// ReplacePackage handles PUT /api/presets/packages/:id.
func (h *PresetHandler) ReplacePackage(c echo.Context) error {
	id, err := pathID(c, "id", "preset")
	if err != nil {
		return err
	}
	var p domain.PackagePreset
	if err := bindJSON(c, "preset.update", &p); err != nil {
		return err
	}
	p.ID = id
	if err := h.presets.UpdatePackagePreset(c.Request().Context(), &p); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// PatchPackage handles PATCH /api/presets/packages/:id.
func (h *PresetHandler) PatchPackage(c echo.Context) error {
	id, err := pathID(c, "id", "preset")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := h.presets.GetPackagePreset(ctx, id)
	if err != nil {
		return err
	}
	if err := bindJSON(c, "preset.update", p); err != nil {
		return err
	}
	p.ID = id
	if err := h.presets.UpdatePackagePreset(ctx, p); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// DeletePackage handles DELETE /api/presets/packages/:id.
func (h *PresetHandler) DeletePackage(c echo.Context) error {
	id, err := pathID(c, "id", "preset")
	if err != nil {
		return err
	}
	if err := h.presets.DeletePackagePreset(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
