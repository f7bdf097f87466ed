package routes

import (
	"equipment-qms/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runEquipmentRouter(api *echo.Group, equipmentCtrl *controllers.EquipmentController) {
	api.GET("/equipment", equipmentCtrl.GetEquipments)
	api.GET("/equipment/:id", equipmentCtrl.FindEquipment)
	api.POST("/equipment", equipmentCtrl.CreateEquipment)
	api.PUT("/equipment/:id", equipmentCtrl.UpdateEquipment)
	api.DELETE("/equipment/:id", equipmentCtrl.DeleteEquipment)

	api.POST("/equipment/:id/status", equipmentCtrl.ChangeStatus)
	api.POST("/equipment/:id/maintenance", equipmentCtrl.CompleteMaintenance)
	api.GET("/equipment/:id/maintenance", equipmentCtrl.GetMaintenanceHistory)
}
