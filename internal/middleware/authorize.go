package middleware

import (
	"net/http"

	"edupoint-crm/models"

	"github.com/gin-gonic/gin"
)

// accessPolicy is the single source of truth for which roles may invoke which
// operation. Routes name the operation; the table decides. Ownership rules
// (assignee-only, creator-only) stay in the handlers — they depend on the
// entity, not the role.
var accessPolicy = map[string][]models.Role{
	"leads:create":      {models.RoleDigitalMarketing},
	"leads:bulk":        {models.RoleDigitalMarketing},
	"leads:list":        {models.RoleDigitalMarketing, models.RoleAdmin, models.RoleSuperAdmin},
	"leads:assign":      {models.RoleDigitalMarketing},
	"leads:update":      {models.RoleDigitalMarketing},
	"leads:delete":      {models.RoleDigitalMarketing},
	"leads:assignments": {models.RoleDigitalMarketing},

	"admission:leads":      {models.RoleAdmission, models.RoleAdmin, models.RoleSuperAdmin, models.RoleCoordinator, models.RoleDigitalMarketing},
	"admission:transition": {models.RoleAdmission, models.RoleAdmin, models.RoleSuperAdmin},
	"admission:undo":       {models.RoleAdmin, models.RoleSuperAdmin},
	"admission:followups":  {models.RoleAdmission, models.RoleAdmin, models.RoleSuperAdmin},

	"fees:submit": {models.RoleAdmission},
	"fees:list":   {models.RoleAdmission, models.RoleAdmin, models.RoleSuperAdmin, models.RoleAccountant, models.RoleCoordinator},
	"fees:status": {models.RoleAdmission, models.RoleAdmin, models.RoleSuperAdmin, models.RoleAccountant, models.RoleCoordinator},

	"accounting:fees":    {models.RoleAccountant, models.RoleAdmin, models.RoleSuperAdmin, models.RoleITAdmin},
	"accounting:decide":  {models.RoleAccountant},
	"accounting:view":    {models.RoleAccountant, models.RoleAdmin, models.RoleSuperAdmin, models.RoleITAdmin},
	"accounting:edit":    {models.RoleAccountant},

	"bank:view":    {models.RoleAccountant, models.RoleAdmin, models.RoleSuperAdmin},
	"bank:operate": {models.RoleAccountant, models.RoleAdmin, models.RoleSuperAdmin},
	"bank:delete":  {models.RoleAdmin, models.RoleSuperAdmin},

	"coordinator:view": {models.RoleCoordinator, models.RoleAdmin, models.RoleSuperAdmin},
	"coordinator:act":  {models.RoleCoordinator},

	"batches:view": {models.RoleAdmin, models.RoleSuperAdmin, models.RoleAdmission, models.RoleITAdmin},
	"batches:edit": {models.RoleAdmin, models.RoleSuperAdmin},
	"batches:roster": {models.RoleAdmission, models.RoleAdmin, models.RoleSuperAdmin},

	"courses:view": {models.RoleDigitalMarketing, models.RoleAdmission, models.RoleAdmin, models.RoleSuperAdmin, models.RoleCoordinator, models.RoleAccountant, models.RoleITAdmin},
	"courses:edit": {models.RoleAdmin, models.RoleSuperAdmin},

	"plans:view": {models.RoleCoordinator, models.RoleAdmin, models.RoleSuperAdmin},
	"plans:edit": {models.RoleAdmin, models.RoleSuperAdmin},

	"users:manage":    {models.RoleAdmin, models.RoleSuperAdmin, models.RoleITAdmin},
	"activities:view": {models.RoleAdmin, models.RoleSuperAdmin, models.RoleITAdmin},
}

// Authorize gates a route on the access policy table. Unknown operations deny
// everything, so a typo fails closed.
func Authorize(operation string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CurrentRole(c)
		for _, allowed := range accessPolicy[operation] {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"code": "FORBIDDEN", "message": "Not allowed"})
		c.Abort()
	}
}
